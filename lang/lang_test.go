package lang

import (
	"os"
	"path/filepath"
	"testing"
)

const testLang = `
active_language: en
en:
  generic:
    error: "Something went wrong."
  tickets:
    created: "Ticket created!  <#{channel}>"
    close:
      denied: "You do not have permission to close this ticket."
`

func loadTest(t *testing.T) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lang.yml")
	if err := os.WriteFile(path, []byte(testLang), 0644); err != nil {
		t.Fatal(err)
	}
	Load(path)
}

func TestNestedKeys(t *testing.T) {
	loadTest(t)

	if got := T("generic.error"); got != "Something went wrong." {
		t.Errorf("T(generic.error) = %q", got)
	}
	if got := T("tickets.close.denied"); got != "You do not have permission to close this ticket." {
		t.Errorf("T(tickets.close.denied) = %q", got)
	}
}

func TestPlaceholders(t *testing.T) {
	loadTest(t)

	got := T("tickets.created", "channel", "12345")
	if got != "Ticket created!  <#12345>" {
		t.Errorf("T with placeholder = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	loadTest(t)

	if got := T("tickets.nope"); got != "{tickets.nope}" {
		t.Errorf("missing key = %q", got)
	}
}
