package tenant

import (
	"context"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// slugMaxLen limita o slug a 60 caracteres, incluindo sufixos.
	slugMaxLen = 60
	// slugMaxAttempts limita a sequência determinística de candidatos.
	slugMaxAttempts = 200
	// slugFallbackBase é usado quando o nome não tem conteúdo alfanumérico.
	slugFallbackBase = "igreja"
)

// foldDiacritics remove marcas de acentuação (NFD → remove Mn → NFC).
var foldDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify normaliza um nome de organização para a base do slug: sem
// acentos, minúsculo, runs de caracteres fora de [a-z0-9] viram um único
// hífen, sem hífens nas bordas, truncado em 60 caracteres.
func Slugify(nome string) string {
	folded, _, err := transform.String(foldDiacritics, nome)
	if err != nil {
		folded = nome
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	lastHyphen := true // suprime hífen inicial
	for _, r := range folded {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > slugMaxLen {
		slug = strings.TrimRight(slug[:slugMaxLen], "-")
	}
	if slug == "" {
		return slugFallbackBase
	}
	return slug
}

// slugCandidate devolve o candidato da tentativa k: a base na tentativa 0,
// base-2, base-3, ... nas seguintes, sempre dentro de 60 caracteres.
func slugCandidate(base string, attempt int) string {
	if attempt == 0 {
		return base
	}
	suffix := "-" + strconv.Itoa(attempt+1)
	if len(base)+len(suffix) > slugMaxLen {
		base = strings.TrimRight(base[:slugMaxLen-len(suffix)], "-")
	}
	return base + suffix
}

// fallbackSlug produz o último recurso quando toda a sequência colide:
// base truncada + timestamp em base 36.
func fallbackSlug(base string, now time.Time) string {
	suffix := "-" + strconv.FormatInt(now.Unix(), 36)
	if len(base)+len(suffix) > slugMaxLen {
		base = strings.TrimRight(base[:slugMaxLen-len(suffix)], "-")
	}
	return base + suffix
}

// Allocator aloca slugs únicos com retry determinístico em colisão.
//
// Insert tenta gravar o candidato; a própria tentativa é o commit, não há
// sondagem separada. Conflict decide se o erro foi violação de unicidade
// (e portanto vale tentar o próximo candidato) ou falha fatal.
type Allocator struct {
	Insert   func(ctx context.Context, slug string) error
	Conflict func(error) bool
}

// Allocate executa a sequência de candidatos até inserir com sucesso.
// Esgotadas as 200 tentativas, tenta uma única vez o fallback com
// timestamp; se esse também colidir, o erro sobe.
func (a Allocator) Allocate(ctx context.Context, nome string) (string, error) {
	base := Slugify(nome)

	for attempt := 0; attempt < slugMaxAttempts; attempt++ {
		candidate := slugCandidate(base, attempt)
		err := a.Insert(ctx, candidate)
		if err == nil {
			return candidate, nil
		}
		if a.Conflict(err) {
			continue
		}
		return "", err
	}

	candidate := fallbackSlug(base, time.Now().UTC())
	if err := a.Insert(ctx, candidate); err != nil {
		return "", err
	}
	return candidate, nil
}
