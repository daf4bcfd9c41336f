// Package api provides the HTTP REST API of the rescue simulator.
//
// Endpoints (all JSON):
//
// Sessions:
//   - POST   /api/sessions                       create, body {"config_id": "classic"}
//   - GET    /api/sessions                       list, ?sort=created|accessed&order=asc|desc&limit=N
//   - GET    /api/sessions/{id}                  session with state and scenario
//   - DELETE /api/sessions/{id}                  delete session, snapshots and history
//   - POST   /api/sessions/{id}/reset            rebuild the world from the scenario
//
// Turns:
//   - POST   /api/sessions/{id}/advance          body {"turns": N, "reports": true}
//   - GET    /api/sessions/{id}/state            current state
//   - GET    /api/sessions/{id}/cells/{x}/{y}    one cell
//   - GET    /api/sessions/{id}/history          per-team ledger, ?team=1|2
//
// Snapshots:
//   - POST   /api/sessions/{id}/snapshots                  store the current turn
//   - GET    /api/sessions/{id}/snapshots                  stored turns
//   - POST   /api/sessions/{id}/snapshots/{turn}/load      roll back; {turn} may be "latest"
//
// Scenarios:
//   - GET    /api/configs
//   - GET    /api/configs/{name}
//   - POST   /api/configs                        body {"config_id": "duel", "config": {...}}
//
// Spectators connect to /ws?session={id}; see package websocket.
//
// Errors are returned as {"error": "..."}. Unknown sessions, snapshots and
// scenarios map to 404, bad arguments and invalid scenarios to 400, a taken
// id to 409 and snapshot calls without persistence to 501.
//
// An advance asking for more than engine.MaxAdvanceTurns turns is truncated;
// the result reports truncated=true and the limit.
package api
