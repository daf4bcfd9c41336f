package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

const scenarioSchemaURL = "https://rescuesim.local/scenario.schema.json"

// scenarioSchema checks the shape of a scenario document. Rules that depend
// on the grid live in engine.ValidateGameConfig.
const scenarioSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name", "width", "height", "teams"],
  "additionalProperties": false,
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "description": {"type": "string"},
    "width": {"type": "integer", "minimum": 3, "maximum": 200},
    "height": {"type": "integer", "minimum": 3, "maximum": 200},
    "seed": {"type": "integer"},
    "mine_toggle_period": {"type": "integer", "minimum": 0},
    "collision_policy": {"enum": ["", "allow_crash", "prefer_move"]},
    "teams": {
      "type": "array",
      "minItems": 2,
      "maxItems": 2,
      "items": {"$ref": "#/$defs/team"}
    },
    "mines": {"type": "array", "items": {"$ref": "#/$defs/mine"}},
    "items": {"$ref": "#/$defs/items"}
  },
  "$defs": {
    "strategy": {"enum": ["", "pick_nearest", "invader", "kamikaze", "escort", "full_safe"]},
    "position": {
      "type": "object",
      "required": ["x", "y"],
      "additionalProperties": false,
      "properties": {
        "x": {"type": "integer", "minimum": 0},
        "y": {"type": "integer", "minimum": 0}
      }
    },
    "team": {
      "type": "object",
      "required": ["vehicles"],
      "additionalProperties": false,
      "properties": {
        "name": {"type": "string"},
        "strategy": {"$ref": "#/$defs/strategy"},
        "vehicles": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["kind", "row"],
            "additionalProperties": false,
            "properties": {
              "kind": {"enum": ["truck", "jeep", "car", "motorcycle"]},
              "row": {"type": "integer", "minimum": 0},
              "column": {"type": "integer", "minimum": 0},
              "strategy": {"$ref": "#/$defs/strategy"}
            }
          }
        }
      }
    },
    "mine": {
      "type": "object",
      "required": ["kind"],
      "additionalProperties": false,
      "properties": {
        "kind": {"enum": ["O1", "O2", "T1", "T2", "G1"]},
        "position": {"$ref": "#/$defs/position"},
        "margin_x": {"type": "integer", "minimum": 0},
        "margin_y": {"type": "integer", "minimum": 0}
      }
    },
    "items": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "persons": {"type": "integer", "minimum": 0},
        "others": {"type": "integer", "minimum": 0},
        "fixed": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["kind", "position"],
            "additionalProperties": false,
            "properties": {
              "kind": {"enum": ["person", "weapon", "clothing", "food", "heal"]},
              "position": {"$ref": "#/$defs/position"}
            }
          }
        }
      }
    }
  }
}`

var compiledSchema = jsonschema.MustCompileString(scenarioSchemaURL, scenarioSchema)

// ValidateDocument checks raw scenario bytes against the scenario schema.
// format is "json", "yaml" or "yml"; empty means json.
func ValidateDocument(data []byte, format string) error {
	var doc interface{}
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("%w: parse yaml: %v", ErrInvalidConfig, err)
		}
	case "json", "":
		if err := json.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("%w: parse json: %v", ErrInvalidConfig, err)
		}
	default:
		return fmt.Errorf("%w: unsupported format %q", ErrInvalidConfig, format)
	}

	if err := compiledSchema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
