package options_test

import (
	"testing"

	"github.com/aretw0/protflow/pkg/options"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestMerge_Precedence(t *testing.T) {
	got := options.Merge("--width 800 --height 600", "--color blue --verbose", "")
	assert.Equal(t, map[string]string{"width": "800", "height": "600", "color": "blue"}, got.Map())
	assert.Equal(t, []string{"verbose"}, got.Flags())

	got = options.Merge("--x 1", "--x 2", "--")
	assert.Equal(t, map[string]string{"x": "2"}, got.Map())
	assert.Empty(t, got.Flags())
}

func TestMerge_FlagsAreUnion(t *testing.T) {
	got := options.Merge("--verbose --quiet", "--verbose", "")
	assert.Equal(t, []string{"verbose", "quiet"}, got.Flags())
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		sep   string
		keys  map[string]string
		flags []string
	}{
		{name: "empty", in: "", keys: map[string]string{}},
		{name: "whitespace only", in: "   --  ", keys: map[string]string{}},
		{name: "equals", in: "--out=a=b --n=3", keys: map[string]string{"out": "a=b", "n": "3"}},
		{name: "space wins over equals", in: "--key a=b", keys: map[string]string{"key": "a=b"}},
		{name: "multi word value", in: "--name  two words ", keys: map[string]string{"name": "two words"}},
		{name: "flag", in: "--overwrite", keys: map[string]string{}, flags: []string{"overwrite"}},
		{name: "single dash separator", in: "-nstruct 3 -ignore_unrecognized_res", sep: "-",
			keys: map[string]string{"nstruct": "3"}, flags: []string{"ignore_unrecognized_res"}},
		{name: "quotes are plain text", in: `--label "a--b" --x 1`, keys: map[string]string{"label": `"a`, "x": "1"}, flags: []string{`b"`}},
		{name: "apostrophe", in: "--name it's --x 1", keys: map[string]string{"name": "it's", "x": "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := options.Parse(tt.in, tt.sep)
			assert.Equal(t, tt.keys, got.Map())
			if tt.flags == nil {
				assert.Empty(t, got.Flags())
			} else {
				assert.Equal(t, tt.flags, got.Flags())
			}
		})
	}
}

func TestParseQuoted(t *testing.T) {
	tests := []struct {
		name string
		in   string
		keys map[string]string
	}{
		{name: "quoted separator", in: `--label "a--b" --x 1`, keys: map[string]string{"label": `"a--b"`, "x": "1"}},
		{name: "single quotes", in: `--label 'c -- d'`, keys: map[string]string{"label": `'c -- d'`}},
		{name: "unbalanced quote splits plainly", in: "--name it's --x 1", keys: map[string]string{"name": "it's", "x": "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := options.ParseQuoted(tt.in, "")
			assert.Equal(t, tt.keys, got.Map())
			assert.Empty(t, got.Flags())
		})
	}
}

func TestMerge_Apostrophe(t *testing.T) {
	got := options.Merge("--name it's --x 1", "", "")
	assert.Equal(t, map[string]string{"name": "it's", "x": "1"}, got.Map())
	assert.Empty(t, got.Flags())

	got = options.MergeQuoted(`--label 'a -- b'`, "--x 2", "")
	assert.Equal(t, map[string]string{"label": "'a -- b'", "x": "2"}, got.Map())
}

func TestRender(t *testing.T) {
	o := options.Parse("--nstruct 5 --overwrite --out:path x", "")
	assert.Equal(t, "-nstruct 5 -out:path x -overwrite", o.Render("-", " "))
	assert.Equal(t, "--nstruct=5 --out:path=x --overwrite", o.Render("--", "="))
	assert.Equal(t, "", options.New().Render("-", " "))
}

func TestOptions_SetKeepsPosition(t *testing.T) {
	o := options.Parse("--a 1 --b 2", "")
	o.Set("a", "3")
	o.Delete("b")
	o.Delete("missing")
	assert.Equal(t, []string{"a"}, o.Keys())
	v, ok := o.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "3", v)
}

func TestFields(t *testing.T) {
	assert.Equal(t, []string{"a=1", `b='x y'`, `"c d"=2`}, options.Fields(`  a=1 b='x y'   "c d"=2 `))
	assert.Equal(t, []string{"--gpus", "1", "-e", "log file"}, options.Args(`--gpus 1 -e "log file"`))
	assert.Equal(t, []string{""}, options.Args(`""`))
	assert.Empty(t, options.Fields("   "))
}

func TestParseAssignments(t *testing.T) {
	got := options.ParseAssignments(
		"inference.num_designs=5 contigmap.contigs='[10-40/A1-100 B1-5]' potentials.guide_scale=1",
		"inference.num_designs=2 deterministic",
	)
	assert.Equal(t, "2", got.Map()["inference.num_designs"])
	assert.Equal(t, "1", got.Map()["potentials.guide_scale"])
	assert.Equal(t, []string{"deterministic"}, got.Flags())
	assert.Equal(t, "'[10-40/A1-100 B1-5]'", got.Map()["contigmap.contigs"])
	assert.Equal(t, "inference.num_designs=2 contigmap.contigs='[10-40/A1-100 B1-5]' potentials.guide_scale=1 deterministic", got.Render("", "="))
}

func TestMerge_OverrideAlwaysWins(t *testing.T) {
	word := rapid.StringMatching(`[a-z][a-z0-9_]{0,6}`)
	rapid.Check(t, func(r *rapid.T) {
		generic := rapid.MapOfN(word, word, 0, 6).Draw(r, "generic")
		override := rapid.MapOfN(word, word, 0, 6).Draw(r, "override")

		got := options.Merge(render(generic), render(override), "").Map()

		for k, v := range override {
			if got[k] != v {
				r.Fatalf("key %q: got %q, want override %q", k, got[k], v)
			}
		}
		for k, v := range generic {
			if _, ok := override[k]; !ok && got[k] != v {
				r.Fatalf("key %q: got %q, want generic %q", k, got[k], v)
			}
		}
		if len(got) > len(generic)+len(override) {
			r.Fatalf("merged map larger than inputs: %v", got)
		}
	})
}

func render(m map[string]string) string {
	o := options.New()
	for k, v := range m {
		o.Set(k, v)
	}
	return o.String()
}
