package security

import (
	"testing"
	"time"
)

// SanitizeNameがHTMLタグを除去しテキストを残すこと
func TestSanitizeName_StripsHTML(t *testing.T) {
	s := NewProfileSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"プレーンな名前", "Alice Smith", "Alice Smith"},
		{"scriptタグ", `Alice<script>alert(1)</script>`, "Alice"},
		{"imgタグ", `<img src=x onerror=alert(1)>Bob`, "Bob"},
		{"前後の空白", "  Carol  ", "Carol"},
		{"空文字列", "", ""},
		{"タグのみ", "<b></b>", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.SanitizeName(tt.input); got != tt.want {
				t.Errorf("SanitizeName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// SanitizeNameが冪等であること
func TestSanitizeName_Idempotent(t *testing.T) {
	s := NewProfileSanitizer()

	input := `<a href="https://example.com">Alice</a>`
	once := s.SanitizeName(input)
	twice := s.SanitizeName(once)
	if once != twice {
		t.Errorf("sanitize is not idempotent: %q != %q", once, twice)
	}
}

// ValidatePictureURLが危険なURLを拒否すること
func TestValidatePictureURL(t *testing.T) {
	g := NewOutboundGuard()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"正常なhttps URL", "https://lh3.googleusercontent.com/a/photo.jpg", false},
		{"httpスキーム", "http://example.com/photo.jpg", true},
		{"javascriptスキーム", "javascript:alert(1)", true},
		{"ループバックIP", "https://127.0.0.1/photo.jpg", true},
		{"プライベートIP", "https://192.168.1.10/photo.jpg", true},
		{"メタデータIP", "https://169.254.169.254/latest/meta-data", true},
		{"localhost", "https://localhost/photo.jpg", true},
		{"ホストなし", "https:///photo.jpg", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.ValidatePictureURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePictureURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

// NewSafeClientがタイムアウト付きのクライアントを返すこと
func TestNewSafeClient_ReturnsClient(t *testing.T) {
	g := NewOutboundGuard()

	client := g.NewSafeClient(10 * time.Second)
	if client == nil {
		t.Fatal("expected non-nil client")
	}
}
