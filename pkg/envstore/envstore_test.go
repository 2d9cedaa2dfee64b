package envstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func storeAt(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	return New(path), path
}

func TestReadMissingFile(t *testing.T) {
	s, _ := storeAt(t)
	values, err := s.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(values) != 0 {
		t.Fatalf("missing file read as %v", values)
	}
}

func TestReadParsing(t *testing.T) {
	s, path := storeAt(t)
	body := strings.Join([]string{
		`PLAIN=value`,
		`QUOTED="hello world"`,
		`SINGLE='single quoted'`,
		`ESCAPED="say \"hi\""`,
		`# comment line`,
		`not a valid line`,
		`1BAD_KEY=nope`,
		``,
		`  PADDED="trimmed"  `,
	}, "\n")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	values, err := s.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	want := map[string]string{
		"PLAIN":   "value",
		"QUOTED":  "hello world",
		"SINGLE":  "single quoted",
		"ESCAPED": `say "hi"`,
		"PADDED":  "trimmed",
	}
	if len(values) != len(want) {
		t.Fatalf("read %d entries, want %d: %v", len(values), len(want), values)
	}
	for k, v := range want {
		if values[k] != v {
			t.Fatalf("%s = %q, want %q", k, values[k], v)
		}
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	s, path := storeAt(t)
	in := map[string]string{
		"A_TOKEN": `with "embedded" quotes`,
		"B_PLAIN": "simple",
		"C_EMPTY": "",
	}
	if err := s.Write(in); err != nil {
		t.Fatalf("write: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if !strings.Contains(string(raw), `B_PLAIN="simple"`) {
		t.Fatalf("values not quoted on disk:\n%s", raw)
	}

	out, err := s.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for k, v := range in {
		if out[k] != v {
			t.Fatalf("%s = %q, want %q", k, out[k], v)
		}
	}
}

func TestSetMirrorsProcessEnv(t *testing.T) {
	s, _ := storeAt(t)
	t.Setenv("ERGON_TEST_MIRROR", "")

	if err := s.Set("ERGON_TEST_MIRROR", "live"); err != nil {
		t.Fatalf("set: %v", err)
	}

	v, ok, err := s.Get("ERGON_TEST_MIRROR")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || v != "live" {
		t.Fatalf("get = %q, %v", v, ok)
	}
	if os.Getenv("ERGON_TEST_MIRROR") != "live" {
		t.Fatal("value not mirrored into process env")
	}
}

func TestSetPreservesOtherKeys(t *testing.T) {
	s, _ := storeAt(t)
	if err := s.Set("FIRST", "1"); err != nil {
		t.Fatalf("set first: %v", err)
	}
	if err := s.Set("SECOND", "2"); err != nil {
		t.Fatalf("set second: %v", err)
	}

	values, err := s.Read()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if values["FIRST"] != "1" || values["SECOND"] != "2" {
		t.Fatalf("read = %v", values)
	}
}

func TestSetRejectsInvalidKey(t *testing.T) {
	s, _ := storeAt(t)
	for _, key := range []string{"", "1LEADING", "BAD-DASH", "SP ACE"} {
		if err := s.Set(key, "v"); err == nil {
			t.Fatalf("key %q accepted", key)
		}
	}
}

func TestSearch(t *testing.T) {
	s, _ := storeAt(t)
	seed := map[string]string{
		"OPENAI_API_KEY": "sk-abcdefghij0123456789",
		"DB_PASSWORD":    "hunter2-is-not-safe",
		"REGION":         "eu-west-1",
		"APP_NAME":       "ergon",
	}
	if err := s.Write(seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	all, err := s.Search("", false)
	if err != nil {
		t.Fatalf("search all: %v", err)
	}
	if len(all) != len(seed) {
		t.Fatalf("search all returned %d entries", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Key > all[i].Key {
			t.Fatalf("results not sorted: %v", all)
		}
	}

	byValue, err := s.Search("eu-west", false)
	if err != nil {
		t.Fatalf("search by value: %v", err)
	}
	if len(byValue) != 1 || byValue[0].Key != "REGION" {
		t.Fatalf("search by value = %v", byValue)
	}

	censored, err := s.Search("api_key", true)
	if err != nil {
		t.Fatalf("censored search: %v", err)
	}
	if len(censored) != 1 {
		t.Fatalf("censored search = %v", censored)
	}
	got := censored[0].Value
	// A 23-char value keeps floor(23*0.05) = 1 character.
	if got != "s"+strings.Repeat("*", len(seed["OPENAI_API_KEY"])-1) {
		t.Fatalf("masked value = %q", got)
	}
}

func TestSearchCensorLeavesPlainValues(t *testing.T) {
	s, _ := storeAt(t)
	if err := s.Write(map[string]string{"APP_NAME": "ergon"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	entries, err := s.Search("app", true)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(entries) != 1 || entries[0].Value != "ergon" {
		t.Fatalf("entries = %v", entries)
	}
}

func TestMaskValue(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"x", "x"},
		{"0123456789", "0*********"},
		{strings.Repeat("a", 20), "a" + strings.Repeat("*", 19)},
		{strings.Repeat("a", 40), "aa" + strings.Repeat("*", 38)},
	}
	for _, tc := range cases {
		if got := maskValue(tc.in); got != tc.want {
			t.Fatalf("maskValue(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
