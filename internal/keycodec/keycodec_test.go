package keycodec_test

import (
	"math/rand/v2"
	"strconv"
	"testing"

	"librarian/internal/keycodec"
	"librarian/internal/schema"
)

func TestEncodeSortsByName(t *testing.T) {
	got := keycodec.Encode(schema.Params{
		"n":     schema.Int(10),
		"dt":    schema.Float(0.25),
		"label": schema.String("a b"),
	})
	want := keycodec.Key("dt : 0.25 | label : a b | n : 10")
	if got != want {
		t.Fatalf("Encode = %q, want %q", got, want)
	}
}

func TestEncodeEmpty(t *testing.T) {
	if got := keycodec.Encode(nil); got != "" {
		t.Fatalf("expected empty key, got %q", got)
	}
}

func TestEncodeEscapesSeparators(t *testing.T) {
	// Without escaping both sets would encode to "a : x | b : y".
	one := schema.Params{"a": schema.String("x | b : y")}
	two := schema.Params{"a": schema.String("x"), "b": schema.String("y")}
	if keycodec.Encode(one) == keycodec.Encode(two) {
		t.Fatalf("distinct sets share key %q", keycodec.Encode(one))
	}

	slash := schema.Params{"a": schema.String(`x\`)}
	plain := schema.Params{"a": schema.String(`x`)}
	if keycodec.Encode(slash) == keycodec.Encode(plain) {
		t.Fatal("backslash not escaped")
	}
}

func TestEncodeKeepsListItemsApart(t *testing.T) {
	joined := schema.Params{"tags": schema.StringList("a, b")}
	split := schema.Params{"tags": schema.StringList("a", "b")}
	if keycodec.Encode(joined) == keycodec.Encode(split) {
		t.Fatalf("distinct lists share key %q", keycodec.Encode(split))
	}
	if got := keycodec.Encode(split); got != "tags : [a, b]" {
		t.Fatalf("Encode = %q, want %q", got, "tags : [a, b]")
	}

	asString := schema.Params{"tags": schema.String("[a, b]")}
	if keycodec.Encode(asString) == keycodec.Encode(split) {
		t.Fatal("string value imitates a list")
	}
	bracket := schema.Params{"tags": schema.StringList("a]", "[b")}
	if keycodec.Encode(bracket) == keycodec.Encode(split) {
		t.Fatal("brackets inside items not escaped")
	}
}

func TestEncodeIndependentOfInsertionOrder(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	for trial := 0; trial < 200; trial++ {
		n := 1 + rng.IntN(6)
		names := make([]string, n)
		values := make([]schema.Value, n)
		for i := range names {
			names[i] = "p" + strconv.Itoa(i)
			switch rng.IntN(4) {
			case 0:
				values[i] = schema.Int(rng.Int64N(100))
			case 1:
				values[i] = schema.Float(rng.Float64())
			case 2:
				values[i] = schema.Bool(rng.IntN(2) == 0)
			default:
				values[i] = schema.String("s" + strconv.Itoa(rng.IntN(5)))
			}
		}

		first := schema.Params{}
		for i := range names {
			first[names[i]] = values[i]
		}
		second := schema.Params{}
		for _, i := range rng.Perm(n) {
			second[names[i]] = values[i]
		}
		if keycodec.Encode(first) != keycodec.Encode(second) {
			t.Fatalf("trial %d: permutation changed key", trial)
		}

		// Changing any single value must change the key.
		j := rng.IntN(n)
		mutated := first.Clone()
		mutated[names[j]] = schema.String(values[j].String() + "x")
		if keycodec.Encode(mutated) == keycodec.Encode(first) {
			t.Fatalf("trial %d: differing sets share a key", trial)
		}
	}
}

func TestEncodeEqualForSameStringForm(t *testing.T) {
	// Keys compare stringified values; schema casting keeps kinds stable.
	a := schema.Params{"n": schema.Int(2)}
	b := schema.Params{"n": schema.String("2")}
	if keycodec.Encode(a) != keycodec.Encode(b) {
		t.Fatal("expected equal keys for equal string forms")
	}
}
