package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/On-Jun9/TagProbe/internal/config"
	"github.com/On-Jun9/TagProbe/internal/pipeline"
	"github.com/On-Jun9/TagProbe/pkg/types"
)

// startLiveServer는 테스트 코드 동작을 검증하거나 보조합니다.
func startLiveServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := newTestServer(t)
	s.router = mux.NewRouter()
	s.setupRoutes()
	go s.hub.Run()

	ts := httptest.NewServer(s.router)
	t.Cleanup(ts.Close)
	return s, ts
}

// dialProgress는 테스트 코드 동작을 검증하거나 보조합니다.
func dialProgress(t *testing.T, s *Server, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("failed to dial websocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	waitForHubClientCount(t, s.hub, 1)
	return conn
}

// readProgress는 테스트 코드 동작을 검증하거나 보조합니다.
func readProgress(t *testing.T, conn *websocket.Conn) pipeline.ProgressUpdate {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(10 * time.Second)); err != nil {
		t.Fatalf("failed to set read deadline: %v", err)
	}
	var update pipeline.ProgressUpdate
	if err := conn.ReadJSON(&update); err != nil {
		t.Fatalf("failed to read progress update: %v", err)
	}
	return update
}

// TestWebSocket_DeliversBroadcastProgress는 테스트 코드 동작을 검증하거나 보조합니다.
func TestWebSocket_DeliversBroadcastProgress(t *testing.T) {
	// broadcastProgress로 보낸 파일별 상태가 연결된 클라이언트에 그대로 도착해야 한다.
	s, ts := startLiveServer(t)
	conn := dialProgress(t, s, ts)

	s.broadcastProgress(pipeline.ProgressUpdate{
		Type:     "progress",
		Current:  1,
		Total:    2,
		Filename: "missing.jpg",
		Status:   types.ResultStatusNotFound,
	})

	update := readProgress(t, conn)
	if update.Type != "progress" || update.Filename != "missing.jpg" || update.Status != types.ResultStatusNotFound {
		t.Fatalf("unexpected progress update: %+v", update)
	}
	if update.Current != 1 || update.Total != 2 {
		t.Fatalf("unexpected counters: %+v", update)
	}
}

// TestWebSocket_ReceivesRunProgress는 테스트 코드 동작을 검증하거나 보조합니다.
func TestWebSocket_ReceivesRunProgress(t *testing.T) {
	// /api/run 실행 중 not_found 진행 상황과 최종 요약이 웹소켓으로 전달되어야 한다.
	s, ts := startLiveServer(t)
	tool := newFakeTool(t)
	conn := dialProgress(t, s, ts)

	baseDir := t.TempDir()
	sourceDir := filepath.Join(baseDir, "src")
	if err := os.MkdirAll(sourceDir, 0755); err != nil {
		t.Fatalf("failed to create source dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sourceDir, "missing.jpg"), []byte("jpeg-bytes"), 0644); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}

	body, _ := json.Marshal(config.Config{
		Source:            sourceDir,
		Tool:              tool,
		IncludeExtensions: []string{"jpg"},
		Jobs:              1,
		StateFile:         filepath.Join(baseDir, "state.db"),
		LogFile:           filepath.Join(baseDir, "tagprobe.log"),
	})
	resp, err := http.Post(ts.URL+"/api/run", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("run request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from /api/run, got %d", resp.StatusCode)
	}

	var (
		sawNotFound bool
		summary     *types.RunSummary
	)
	for summary == nil {
		update := readProgress(t, conn)
		switch update.Type {
		case "error":
			t.Fatalf("run failed: %s", update.Error)
		case "progress":
			if update.Filename == "missing.jpg" && update.Status == types.ResultStatusNotFound {
				sawNotFound = true
			}
		case "complete":
			summary = update.Summary
		}
	}

	if !sawNotFound {
		t.Fatal("expected a not_found progress update for missing.jpg")
	}
	if summary.NotFound != 1 || summary.Extracted != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	waitUntil(t, 5*time.Second, func() bool {
		if runMutex.TryLock() {
			runMutex.Unlock()
			return true
		}
		return false
	})
}

// TestHub_UnregisterClosesClientChannel는 테스트 코드 동작을 검증하거나 보조합니다.
func TestHub_UnregisterClosesClientChannel(t *testing.T) {
	// 등록 해제된 클라이언트는 더 이상 진행 상황을 받지 않고 send 채널이 닫혀야 한다.
	h := NewHub()
	go h.Run()

	client := &Client{hub: h, send: make(chan []byte, 4)}
	h.register <- client
	waitForHubClientCount(t, h, 1)

	h.unregister <- client
	waitForHubClientCount(t, h, 0)

	if _, ok := <-client.send; ok {
		t.Fatal("expected send channel to be closed")
	}
}

// TestHub_DropsClientThatCannotKeepUp는 테스트 코드 동작을 검증하거나 보조합니다.
func TestHub_DropsClientThatCannotKeepUp(t *testing.T) {
	// 버퍼가 가득 찬 클라이언트는 제거되고, 다른 클라이언트는 계속 메시지를 받아야 한다.
	h := NewHub()
	go h.Run()

	stalled := &Client{hub: h, send: make(chan []byte)}
	healthy := &Client{hub: h, send: make(chan []byte, 4)}
	h.register <- stalled
	h.register <- healthy
	waitForHubClientCount(t, h, 2)

	h.broadcast <- []byte(`{"type":"status"}`)
	waitForHubClientCount(t, h, 1)

	select {
	case msg := <-healthy.send:
		if string(msg) != `{"type":"status"}` {
			t.Fatalf("unexpected payload: %s", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("healthy client did not receive broadcast")
	}
}

// TestHandleWebSocket_RejectsPlainHTTP는 테스트 코드 동작을 검증하거나 보조합니다.
func TestHandleWebSocket_RejectsPlainHTTP(t *testing.T) {
	// 웹소켓 핸드셰이크가 없는 요청은 업그레이드되지 않고 클라이언트도 등록되지 않아야 한다.
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/ws", nil)
	rr := httptest.NewRecorder()

	s.handleWebSocket(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid handshake, got %d", rr.Code)
	}
	if len(s.hub.clients) != 0 {
		t.Fatal("no client should be registered")
	}
}

// waitForHubClientCount는 테스트 코드 동작을 검증하거나 보조합니다.
func waitForHubClientCount(t *testing.T, h *Hub, expected int) {
	t.Helper()
	waitUntil(t, 2*time.Second, func() bool {
		h.mu.RLock()
		defer h.mu.RUnlock()
		return len(h.clients) == expected
	})
}

// waitUntil는 테스트 코드 동작을 검증하거나 보조합니다.
func waitUntil(t *testing.T, timeout time.Duration, condition func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("timeout waiting for condition")
}
