package ingredient

import "testing"

func TestNormalizeName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Potatis", "potatis"},
		{"  Gul Lök  ", "lök"},
		{"tomater", "tomat"},
		{"Chicken", "kyckling"},
		{"krossade tomater!", "krossade tomater"},
		{"vitlök, pressad", "vitlök pressad"},
		{"", ""},
		{"  --  ", ""},
	}

	for _, c := range cases {
		if got := NormalizeName(c.in); got != c.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeUnit(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"   ", ""},
		{"G", "g"},
		{"gram", "g"},
		{"Kilo", "kg"},
		{"liter", "l"},
		{"dl", "dl"},
		{"Matsked", "msk"},
		{"tsp", "tsk"},
		{"klyftor", "klyfta"},
		{"förpackning", "förp"},
		{"paket", "pkt"},
		// Unknown units pass through unchanged, lowercased.
		{"näve", "näve"},
		{"burk", "burk"},
	}

	for _, c := range cases {
		if got := NormalizeUnit(c.in); got != c.want {
			t.Errorf("NormalizeUnit(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestIsNonIngredient(t *testing.T) {
	for _, tok := range []string{"", "null", "n/a", "okänd", "unknown"} {
		if !IsNonIngredient(tok) {
			t.Errorf("IsNonIngredient(%q) = false, want true", tok)
		}
	}
	if IsNonIngredient("potatis") {
		t.Error("IsNonIngredient(\"potatis\") = true, want false")
	}
}
