package sanitize

import "testing"

func TestText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"<b>Quero</b> um apê", "Quero um apê"},
		{"&lt;script&gt;alert(1)&lt;/script&gt;oi", "alert(1)oi"},
		{"  muitos   espaços\taqui  ", "muitos espaços aqui"},
		{"linha 1\nlinha 2", "linha 1\nlinha 2"},
		{"sino\x07", "sino"},
	}

	for _, tc := range cases {
		if got := Text(tc.in); got != tc.want {
			t.Fatalf("Text(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestTextPtr(t *testing.T) {
	if TextPtr(nil) != nil {
		t.Fatal("expected nil for nil input")
	}
	blank := "<p> </p>"
	if TextPtr(&blank) != nil {
		t.Fatal("expected nil for input that sanitizes to empty")
	}
	value := " 500 mil "
	if got := TextPtr(&value); got == nil || *got != "500 mil" {
		t.Fatalf("unexpected %v", got)
	}
}
