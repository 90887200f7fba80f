package session

import (
	"strings"
	"testing"

	"github.com/hitoshi/authweb/internal/model"
)

// GetOrCreateSessionIDは同一セッション内で冪等であること
func TestGetOrCreateSessionID_Idempotent(t *testing.T) {
	m := NewManager(NewMemoryStore())

	first, err := m.GetOrCreateSessionID()
	if err != nil {
		t.Fatalf("GetOrCreateSessionID failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		again, err := m.GetOrCreateSessionID()
		if err != nil {
			t.Fatalf("GetOrCreateSessionID failed: %v", err)
		}
		if again != first {
			t.Errorf("call %d returned %q, want %q", i, again, first)
		}
	}
}

// 生成されるsession_idは32文字で[A-Z0-9]のみから成ること
func TestGetOrCreateSessionID_Format(t *testing.T) {
	m := NewManager(NewMemoryStore())

	id, err := m.GetOrCreateSessionID()
	if err != nil {
		t.Fatalf("GetOrCreateSessionID failed: %v", err)
	}

	if len(id) != sessionIDLength {
		t.Errorf("session ID length = %d, want %d", len(id), sessionIDLength)
	}
	for _, c := range id {
		if !strings.ContainsRune(sessionIDAlphabet, c) {
			t.Errorf("session ID contains invalid character %q", c)
		}
	}
}

// 別々のセッションは異なるsession_idを持つこと
func TestGetOrCreateSessionID_UniquePerSession(t *testing.T) {
	a, err := NewManager(NewMemoryStore()).GetOrCreateSessionID()
	if err != nil {
		t.Fatalf("GetOrCreateSessionID failed: %v", err)
	}
	b, err := NewManager(NewMemoryStore()).GetOrCreateSessionID()
	if err != nil {
		t.Fatalf("GetOrCreateSessionID failed: %v", err)
	}
	if a == b {
		t.Error("two sessions should not share a session ID")
	}
}

// SessionIDは状態を変更しない読み取り専用アクセサであること
func TestSessionID_DoesNotCreate(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store)

	if _, ok := m.SessionID(); ok {
		t.Error("SessionID should report absence for a fresh session")
	}
	if store.SaveCount != 0 {
		t.Errorf("SessionID should not write back, SaveCount = %d", store.SaveCount)
	}
}

// Bindで認証済み状態になり、Currentがユーザー情報を返すこと
func TestBind_SetsAuthenticatedState(t *testing.T) {
	m := NewManager(NewMemoryStore())

	login := &model.Login{
		ProviderName: "google",
		AccessToken:  "tok-1",
		AccessID:     "sub-1",
		UserData:     model.UserData{Name: "Alice", Email: "alice@example.com"},
	}
	if err := m.Bind("user-1", "Alice", login); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	state := m.Current()
	if !state.Authenticated {
		t.Error("session should be authenticated after Bind")
	}
	if state.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", state.UserID, "user-1")
	}
	if state.UserName != "Alice" {
		t.Errorf("UserName = %q, want %q", state.UserName, "Alice")
	}

	got, err := m.Login()
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if got == nil || got.AccessID != "sub-1" {
		t.Errorf("pending login = %+v, want AccessID %q", got, "sub-1")
	}
}

// Clearは認証状態と保留中ログインを削除し、冪等であること
func TestClear_Idempotent(t *testing.T) {
	m := NewManager(NewMemoryStore())

	login := &model.Login{ProviderName: "google", AccessID: "sub-1"}
	if err := m.Bind("user-1", "Alice", login); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	if err := m.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if m.Current().Authenticated {
		t.Error("session should not be authenticated after Clear")
	}
	if got, _ := m.Login(); got != nil {
		t.Error("pending login should be removed by Clear")
	}

	// 2回目のClearもエラーなしで成功する
	if err := m.Clear(); err != nil {
		t.Errorf("second Clear should succeed: %v", err)
	}
}

// Clearはsession_idを維持すること
func TestClear_KeepsSessionID(t *testing.T) {
	m := NewManager(NewMemoryStore())

	id, err := m.GetOrCreateSessionID()
	if err != nil {
		t.Fatalf("GetOrCreateSessionID failed: %v", err)
	}
	if err := m.Bind("user-1", "Alice", &model.Login{ProviderName: "google"}); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if err := m.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	after, ok := m.SessionID()
	if !ok || after != id {
		t.Errorf("session ID after Clear = %q (ok=%v), want %q", after, ok, id)
	}
}

// 未認証セッションのCurrentはゼロ値の状態を返すこと
func TestCurrent_AnonymousSession(t *testing.T) {
	m := NewManager(NewMemoryStore())

	state := m.Current()
	if state.Authenticated || state.UserID != "" || state.UserName != "" {
		t.Errorf("anonymous session state = %+v, want zero value", state)
	}
}
