package tenant

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var slugShape = regexp.MustCompile(`^[a-z0-9-]{1,60}$`)

// allocSet simula a constraint de unicidade do banco em memória.
type allocSet struct {
	taken map[string]bool
}

var errDup = errors.New("duplicado")

func newAllocSet(existing ...string) *allocSet {
	s := &allocSet{taken: make(map[string]bool)}
	for _, slug := range existing {
		s.taken[slug] = true
	}
	return s
}

func (s *allocSet) allocator() Allocator {
	return Allocator{
		Insert: func(_ context.Context, slug string) error {
			if s.taken[slug] {
				return errDup
			}
			s.taken[slug] = true
			return nil
		},
		Conflict: func(err error) bool { return errors.Is(err, errDup) },
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Graça Viva":                 "graca-viva",
		"Igreja  Batista -- Central": "igreja-batista-central",
		"  São João  ":               "sao-joao",
		"ÁGUAS VIVAS!!!":             "aguas-vivas",
		"!!!":                        "igreja",
		"":                           "igreja",
		"célula@2024":                "celula-2024",
	}

	for in, want := range cases {
		assert.Equal(t, want, Slugify(in), "entrada %q", in)
	}
}

func TestSlugifyTrunca(t *testing.T) {
	long := strings.Repeat("a", 80)
	got := Slugify(long)
	assert.Len(t, got, 60)
	assert.True(t, slugShape.MatchString(got))
}

func TestAllocateFormato(t *testing.T) {
	set := newAllocSet()
	alloc := set.allocator()

	for _, nome := range []string{"Graça Viva", "!!!", strings.Repeat("x", 100), "A B C", "123"} {
		slug, err := alloc.Allocate(context.Background(), nome)
		require.NoError(t, err, nome)
		assert.True(t, slugShape.MatchString(slug), "slug %q fora do formato", slug)
	}
}

func TestAllocateColisao(t *testing.T) {
	set := newAllocSet("graca-viva")
	alloc := set.allocator()

	slug, err := alloc.Allocate(context.Background(), "Graça Viva")
	require.NoError(t, err)
	assert.Equal(t, "graca-viva-2", slug)

	slug, err = alloc.Allocate(context.Background(), "Graça Viva")
	require.NoError(t, err)
	assert.Equal(t, "graca-viva-3", slug)
}

func TestAllocateSufixoRespeitaLimite(t *testing.T) {
	base := Slugify(strings.Repeat("b", 70))
	set := newAllocSet(base)
	alloc := set.allocator()

	slug, err := alloc.Allocate(context.Background(), strings.Repeat("b", 70))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(slug), 60)
	assert.True(t, strings.HasSuffix(slug, "-2"))
}

func TestAllocateErroFatalNaoRetenta(t *testing.T) {
	fatal := errors.New("conexão caiu")
	calls := 0
	alloc := Allocator{
		Insert:   func(context.Context, string) error { calls++; return fatal },
		Conflict: func(err error) bool { return errors.Is(err, errDup) },
	}

	_, err := alloc.Allocate(context.Background(), "Graça Viva")
	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls)
}

func TestAllocateFallbackBase36(t *testing.T) {
	// ocupa a base e os 199 sufixos numéricos
	existing := []string{"graca-viva"}
	for k := 1; k < 200; k++ {
		existing = append(existing, slugCandidate("graca-viva", k))
	}
	set := newAllocSet(existing...)
	alloc := set.allocator()

	slug, err := alloc.Allocate(context.Background(), "Graça Viva")
	require.NoError(t, err)
	assert.True(t, slugShape.MatchString(slug))
	assert.True(t, strings.HasPrefix(slug, "graca-viva-"))
	assert.NotContains(t, existing, slug)
}

func TestFallbackSlug(t *testing.T) {
	now := time.Unix(1700000000, 0)
	got := fallbackSlug("graca-viva", now)
	assert.True(t, slugShape.MatchString(got))
	assert.True(t, strings.HasPrefix(got, "graca-viva-"))

	long := strings.Repeat("c", 60)
	got = fallbackSlug(long, now)
	assert.LessOrEqual(t, len(got), 60)
}
