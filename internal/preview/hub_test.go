package preview

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"

	"github.com/pigmentlabs/pigment/pkg/pubsub"
)

func syncURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/sync"
}

func dialSync(t *testing.T, url string, header http.Header) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dialing %s: %v", url, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func writeEnvelope(t *testing.T, conn *websocket.Conn, env envelope) {
	t.Helper()
	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshaling envelope: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		t.Fatalf("writing envelope: %v", err)
	}
}

func readEnvelope(t *testing.T, conn *websocket.Conn) envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading envelope: %v", err)
	}
	var env envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		t.Fatalf("unmarshaling envelope %q: %v", msg, err)
	}
	return env
}

func TestHubRelaysBetweenPeers(t *testing.T) {
	site := writeSite(t, map[string]string{"index.html": heroPage})
	_, srv := newTestServer(t, Config{SiteDir: site})

	a := dialSync(t, syncURL(srv), nil)
	b := dialSync(t, syncURL(srv), nil)

	writeEnvelope(t, a, envelope{Type: msgSubscribe, Channel: "pigment:colors"})
	writeEnvelope(t, b, envelope{Type: msgSubscribe, Channel: "pigment:colors"})

	payload := `{"colors":[{"hex":"#C8553D"}]}`
	writeEnvelope(t, b, envelope{Type: msgPublish, Channel: "pigment:colors", Data: json.RawMessage(payload)})

	env := readEnvelope(t, a)
	if env.Type != msgPublish || env.Channel != "pigment:colors" || string(env.Data) != payload {
		t.Fatalf("relayed envelope = %+v, want publish of %s", env, payload)
	}

	// The publisher must not hear its own payload back.
	b.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, msg, err := b.ReadMessage(); err == nil {
		t.Fatalf("publisher received echo %q", msg)
	}
}

func TestHubReplaysLastPayloadToLateJoiner(t *testing.T) {
	site := writeSite(t, map[string]string{"index.html": heroPage})
	_, srv := newTestServer(t, Config{SiteDir: site})

	witness := dialSync(t, syncURL(srv), nil)
	writeEnvelope(t, witness, envelope{Type: msgSubscribe, Channel: "pigment:prefs"})

	publisher := dialSync(t, syncURL(srv), nil)
	payload := `{"theme":"dark"}`
	writeEnvelope(t, publisher, envelope{Type: msgPublish, Channel: "pigment:prefs", Data: json.RawMessage(payload)})

	// Once the witness has the payload the hub has cached it.
	if env := readEnvelope(t, witness); string(env.Data) != payload {
		t.Fatalf("witness received %s, want %s", env.Data, payload)
	}

	late := dialSync(t, syncURL(srv), nil)
	writeEnvelope(t, late, envelope{Type: msgSubscribe, Channel: "pigment:prefs"})

	env := readEnvelope(t, late)
	if env.Type != msgPublish || string(env.Data) != payload {
		t.Fatalf("late joiner received %+v, want replay of %s", env, payload)
	}
}

func TestHubIgnoresMalformedEnvelopes(t *testing.T) {
	site := writeSite(t, map[string]string{"index.html": heroPage})
	_, srv := newTestServer(t, Config{SiteDir: site})

	a := dialSync(t, syncURL(srv), nil)
	b := dialSync(t, syncURL(srv), nil)

	writeEnvelope(t, a, envelope{Type: msgSubscribe, Channel: "pigment:colors"})

	if err := b.WriteMessage(websocket.TextMessage, []byte("not an envelope")); err != nil {
		t.Fatalf("writing garbage: %v", err)
	}
	writeEnvelope(t, b, envelope{Type: msgPublish, Channel: ""})

	// The connection survives both and keeps relaying.
	writeEnvelope(t, b, envelope{Type: msgPublish, Channel: "pigment:colors", Data: json.RawMessage(`{"ok":true}`)})
	if env := readEnvelope(t, a); string(env.Data) != `{"ok":true}` {
		t.Fatalf("relay after malformed input = %+v", env)
	}
}

func TestHubRequiresTokenWhenSecretSet(t *testing.T) {
	const secret = "wet-paint"

	site := writeSite(t, map[string]string{"index.html": heroPage})
	_, srv := newTestServer(t, Config{SiteDir: site, SyncSecret: secret})

	if _, resp, err := websocket.DefaultDialer.Dial(syncURL(srv), nil); err == nil {
		t.Fatal("tokenless dial succeeded")
	} else if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("tokenless dial response = %v, want 401", resp)
	}

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("signing forged token: %v", err)
	}
	if _, resp, err := websocket.DefaultDialer.Dial(syncURL(srv)+"?token="+forged, nil); err == nil {
		t.Fatal("dial with forged token succeeded")
	} else if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("forged token response = %v, want 401", resp)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	header := dialSync(t, syncURL(srv), http.Header{"Authorization": {"Bearer " + token}})
	header.Close()

	query := dialSync(t, syncURL(srv)+"?token="+token, nil)
	query.Close()
}

func receivePayload(t *testing.T, ch pubsub.Channel) []byte {
	t.Helper()
	select {
	case data, ok := <-ch.Messages():
		if !ok {
			t.Fatal("channel closed while waiting for payload")
		}
		return data
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for payload")
		return nil
	}
}

func TestBridgeChannelRelay(t *testing.T) {
	site := writeSite(t, map[string]string{"index.html": heroPage})
	_, srv := newTestServer(t, Config{SiteDir: site})

	ctx := context.Background()
	first, err := DialBridge(ctx, syncURL(srv), WithBridgeLogger(discardLogger()))
	if err != nil {
		t.Fatalf("dialing first bridge: %v", err)
	}
	t.Cleanup(func() { first.Close() })

	second, err := DialBridge(ctx, syncURL(srv), WithBridgeLogger(discardLogger()))
	if err != nil {
		t.Fatalf("dialing second bridge: %v", err)
	}
	t.Cleanup(func() { second.Close() })

	recv := second.Channel("pigment:colors")
	send := first.Channel("pigment:colors")

	// Non-JSON payloads are dropped before they reach the wire.
	send.Publish([]byte("not json"))
	send.Publish([]byte(`{"colors":[]}`))

	if got := receivePayload(t, recv); string(got) != `{"colors":[]}` {
		t.Fatalf("bridge relayed %s, want the JSON payload", got)
	}

	recv.Close()
	if _, ok := <-recv.Messages(); ok {
		t.Error("Messages still open after Close")
	}
}

func TestBridgeMirrorsBrokers(t *testing.T) {
	site := writeSite(t, map[string]string{"index.html": heroPage})
	_, srv := newTestServer(t, Config{SiteDir: site})

	ctx := context.Background()
	first, err := DialBridge(ctx, syncURL(srv), WithBridgeLogger(discardLogger()))
	if err != nil {
		t.Fatalf("dialing first bridge: %v", err)
	}
	t.Cleanup(func() { first.Close() })

	second, err := DialBridge(ctx, syncURL(srv), WithBridgeLogger(discardLogger()))
	if err != nil {
		t.Fatalf("dialing second bridge: %v", err)
	}
	t.Cleanup(func() { second.Close() })

	local := pubsub.NewBroker()
	t.Cleanup(func() { local.Close() })
	remote := pubsub.NewBroker()
	t.Cleanup(func() { remote.Close() })

	first.Mirror(local, "pigment:colors")
	second.Mirror(remote, "pigment:colors")

	sub := remote.Channel("pigment:colors")
	local.Publish("pigment:colors", []byte(`{"colors":[{"hex":"#588B8B"}]}`))

	if got := receivePayload(t, sub); string(got) != `{"colors":[{"hex":"#588B8B"}]}` {
		t.Fatalf("mirrored payload = %s", got)
	}
}
