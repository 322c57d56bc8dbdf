package webserver

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"rcsclientgo/chat"
	"rcsclientgo/global"
	"rcsclientgo/system"

	"github.com/gorilla/websocket"
)

var (
	engine *chat.Engine

	wsmu     sync.Mutex
	wsClient *websocket.Conn
)

func StartWS(ipv4 string, htp int, eng *chat.Engine) {
	global.ClientIPv4Str = ipv4
	global.HttpTcpPort = htp
	engine = eng

	r := http.NewServeMux()
	ws := fmt.Sprintf("%s:%d", ipv4, htp)
	srv := &http.Server{Addr: ws, Handler: r, ReadTimeout: 5 * time.Second, WriteTimeout: 10 * time.Second, IdleTimeout: 15 * time.Second}

	r.HandleFunc("/api/v1/session", serveSession)
	r.HandleFunc("/api/v1/stats", serveStats)
	r.HandleFunc("/", webHandler)

	global.WtGrp.Add(1)
	atomic.AddInt32(&global.WtGrpC, 1)
	go func() {
		defer global.WtGrp.Done()
		defer atomic.AddInt32(&global.WtGrpC, -1)
		log.Fatal(srv.ListenAndServe())
	}()

	global.WtGrp.Add(1)
	go pumpEvents()

	fmt.Print("Loading API Webserver...")
	fmt.Println("Success: HTTP", ws)
}

func webHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if r.URL.Path == "/" {
			serveHome(w)
			return
		} else if r.URL.Path == "/ws" {
			handleWSConnection(w, r)
			return
		}
	}
	http.Error(w, "Not Found Resource", http.StatusNotFound)
}

func serveHome(w http.ResponseWriter) {
	_, _ = w.Write(fmt.Appendf(nil, "<h1>%s API Webserver</h1>", global.EntityName))
}

func serveSession(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var lst []string
	for _, ses := range engine.Sessions() {
		lst = append(lst, ses.String())
	}

	data := struct {
		Sessions []string
	}{Sessions: lst}

	response, _ := json.Marshal(data)
	_, err := w.Write(response)
	if err != nil {
		system.LogError(system.LTWebserver, err.Error())
	}
}

func serveStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	BToMB := func(b uint64) uint64 {
		return b / 1000 / 1000
	}

	data := struct {
		CPUCount        int
		GoRoutinesCount int
		Alloc           uint64
		System          uint64
		GCCycles        uint32
		WaitGroupLength int32
		SessionCount    int
	}{CPUCount: runtime.NumCPU(),
		GoRoutinesCount: runtime.NumGoroutine(),
		Alloc:           BToMB(m.Alloc),
		System:          BToMB(m.Sys),
		GCCycles:        m.NumGC,
		WaitGroupLength: atomic.LoadInt32(&global.WtGrpC),
		SessionCount:    engine.SessionCount(),
	}

	response, _ := json.Marshal(data)
	_, err := w.Write(response)
	if err != nil {
		system.LogError(system.LTWebserver, err.Error())
	}
}

// ==============================================================
// WebSocket event stream

func handleWSConnection(w http.ResponseWriter, r *http.Request) {
	var upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		fmt.Println(err)
		return
	}

	wsmu.Lock()
	if wsClient != nil {
		wsClient.Close()
	}
	wsClient = ws
	wsmu.Unlock()

	global.WtGrp.Add(1)
	go listenToWS(ws)
}

func listenToWS(ws *websocket.Conn) {
	defer global.WtGrp.Done()
	defer ws.Close()
	for {
		var msg map[string]any
		err := ws.ReadJSON(&msg)
		if err != nil {
			system.LogWarning(system.LTWebSocketData, fmt.Sprintf("WS read ended: %v", err))
			break
		}
		system.LogInfo(system.LTWebSocketData, fmt.Sprintf("Received: %v", msg))
	}
}

type eventJson struct {
	Type         string              `json:"type"`
	ChatID       string              `json:"chatId"`
	Remote       string              `json:"remote,omitempty"`
	Reason       string              `json:"reason,omitempty"`
	At           time.Time           `json:"at"`
	Message      *global.ChatMessage `json:"message,omitempty"`
	Report       *reportJson         `json:"report,omitempty"`
	Participants map[string]string   `json:"participants,omitempty"`
	Error        string              `json:"error,omitempty"`
}

type reportJson struct {
	MessageID string    `json:"messageId"`
	Status    string    `json:"status"`
	DateTime  time.Time `json:"dateTime"`
}

// pumpEvents streams the engine's session events to the connected client.
func pumpEvents() {
	defer global.WtGrp.Done()
	for ev := range engine.Events() {
		ej := eventJson{
			Type:    ev.Type.String(),
			ChatID:  ev.ChatID,
			Remote:  ev.Remote,
			Reason:  ev.Reason,
			At:      ev.At,
			Message: ev.Message,
		}
		if ev.Report != nil {
			ej.Report = &reportJson{MessageID: ev.Report.MessageID, Status: ev.Report.Status.String(), DateTime: ev.Report.DateTime}
		}
		if ev.Participants != nil {
			ej.Participants = make(map[string]string, len(ev.Participants))
			for contact, status := range ev.Participants {
				ej.Participants[contact] = status.String()
			}
		}
		if ev.Err != nil {
			ej.Error = ev.Err.Error()
		}

		wsmu.Lock()
		ws := wsClient
		wsmu.Unlock()
		if ws == nil {
			continue
		}
		if err := ws.WriteJSON(ej); err != nil {
			system.LogWarning(system.LTWebSocketData, fmt.Sprintf("WS write failed: %v", err))
		}
	}
}
