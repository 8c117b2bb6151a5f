package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

type fakeWeCom struct {
	tokenCalls atomic.Int32
	sendCalls  atomic.Int32
	lastToken  atomic.Value
	lastMsg    atomic.Value
	sendCode   int
}

func (f *fakeWeCom) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/cgi-bin/gettoken", func(w http.ResponseWriter, r *http.Request) {
		n := f.tokenCalls.Add(1)
		if r.URL.Query().Get("corpid") != "corp" || r.URL.Query().Get("corpsecret") != "secret" {
			w.Write([]byte(`{"errcode":40013,"errmsg":"invalid corpid"}`))
			return
		}
		token := "token-" + string(rune('0'+n))
		json.NewEncoder(w).Encode(map[string]any{
			"errcode": 0, "errmsg": "ok", "access_token": token, "expires_in": 7200,
		})
	})
	mux.HandleFunc("/cgi-bin/message/send", func(w http.ResponseWriter, r *http.Request) {
		f.sendCalls.Add(1)
		f.lastToken.Store(r.URL.Query().Get("access_token"))
		var msg wecomMessage
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			t.Errorf("decode message: %v", err)
		}
		f.lastMsg.Store(msg)
		json.NewEncoder(w).Encode(map[string]any{"errcode": f.sendCode, "errmsg": "ok"})
	})
	return mux
}

func newTestWeCom(url string) *WeComNotifier {
	return NewWeComNotifier(WeComConfig{
		BaseURL:    url,
		CorpID:     "corp",
		CorpSecret: "secret",
		AgentID:    1000002,
	})
}

func TestWeComSendCachesToken(t *testing.T) {
	fake := &fakeWeCom{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	n := newTestWeCom(srv.URL)
	for i := 0; i < 3; i++ {
		if err := n.Send(context.Background(), "标题", "内容"); err != nil {
			t.Fatalf("Send returned error: %v", err)
		}
	}

	if got := fake.tokenCalls.Load(); got != 1 {
		t.Fatalf("expected token fetched once, got %d", got)
	}
	if got := fake.sendCalls.Load(); got != 3 {
		t.Fatalf("expected 3 sends, got %d", got)
	}

	msg := fake.lastMsg.Load().(wecomMessage)
	if msg.ToUser != "@all" || msg.MsgType != "text" || msg.AgentID != 1000002 || msg.Safe != 0 {
		t.Fatalf("unexpected message envelope: %+v", msg)
	}
	if msg.Text.Content != "标题\n\n内容" {
		t.Fatalf("unexpected content: %q", msg.Text.Content)
	}
}

func TestWeComRefreshesExpiredToken(t *testing.T) {
	fake := &fakeWeCom{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n := newTestWeCom(srv.URL)
	n.now = func() time.Time { return now }

	if err := n.Send(context.Background(), "a", "b"); err != nil {
		t.Fatal(err)
	}

	// 距离过期不足60秒时仍视为过期
	now = now.Add(7200*time.Second - 30*time.Second)
	if err := n.Send(context.Background(), "a", "b"); err != nil {
		t.Fatal(err)
	}

	if got := fake.tokenCalls.Load(); got != 2 {
		t.Fatalf("expected token refresh, got %d fetches", got)
	}
	if got := fake.lastToken.Load().(string); got != "token-2" {
		t.Fatalf("expected refreshed token, got %q", got)
	}
}

func TestWeComTokenError(t *testing.T) {
	fake := &fakeWeCom{}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	n := NewWeComNotifier(WeComConfig{BaseURL: srv.URL, CorpID: "wrong", CorpSecret: "secret"})
	err := n.Send(context.Background(), "a", "b")
	if err == nil || !strings.Contains(err.Error(), "40013") {
		t.Fatalf("expected token error, got %v", err)
	}
	if fake.sendCalls.Load() != 0 {
		t.Fatalf("message must not be sent without a token")
	}
}

func TestWeComSendErrCode(t *testing.T) {
	fake := &fakeWeCom{sendCode: 81013}
	srv := httptest.NewServer(fake.handler(t))
	defer srv.Close()

	if err := newTestWeCom(srv.URL).Send(context.Background(), "a", "b"); err == nil {
		t.Fatalf("expected error for non-zero errcode")
	}
}

func TestWeComConfigured(t *testing.T) {
	if (WeComConfig{CorpID: "x"}).Configured() {
		t.Fatalf("corp secret is required")
	}
	if !(WeComConfig{CorpID: "x", CorpSecret: "y"}).Configured() {
		t.Fatalf("expected configured")
	}
}
