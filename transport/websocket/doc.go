// Package websocket provides the spectator feed for the rescue simulator.
//
// A central Hub owns every connection. Clients subscribe to one session with
// the ?session=<id> query parameter and receive JSON frames:
//
//	{"session_id":"ab12","event":"turn","turn":7,"report":{...}}
//	{"session_id":"ab12","event":"state_update","turn":8,"game_state":{...}}
//
// One "turn" frame is sent per resolved turn, followed by a "state_update"
// carrying the state after the advance. Resets and snapshot loads send
// "session_reset" and "snapshot_loaded" with the new state.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run()
//	defer hub.Stop()
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
// Broadcasts are queued and never block the caller; when the queue is full
// new messages are dropped and logged. A spectator whose send buffer fills
// up is disconnected.
package websocket
