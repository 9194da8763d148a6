// Package delivery は配送可能エリアの判定とCEPの抽出。
package delivery

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// 配送エリア（市/州）
type Region struct {
	City  string
	State string
}

func (r Region) String() string {
	return r.City + "/" + r.State
}

var DefaultRegion = Region{City: "JOAO PESSOA", State: "PB"}

// "JOAO PESSOA/PB;CABEDELO/PB" 形式
func ParseRegions(s string) ([]Region, error) {
	var out []Region
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		city, state, ok := strings.Cut(part, "/")
		if !ok || strings.TrimSpace(city) == "" || strings.TrimSpace(state) == "" {
			return nil, fmt.Errorf("invalid delivery region %q (want CITY/UF)", part)
		}
		out = append(out, Region{City: NormalizeCity(city), State: NormalizeState(state)})
	}
	if len(out) == 0 {
		return nil, errors.New("no delivery regions")
	}
	return out, nil
}

type Checker struct {
	regions []Region
}

// 引数なしならDefaultRegionのみ。
func NewChecker(regions ...Region) *Checker {
	if len(regions) == 0 {
		regions = []Region{DefaultRegion}
	}
	c := &Checker{regions: make([]Region, 0, len(regions))}
	for _, r := range regions {
		c.regions = append(c.regions, Region{City: NormalizeCity(r.City), State: NormalizeState(r.State)})
	}
	return c
}

// 正規化後の完全一致のみ。部分一致・あいまい一致はしない。
func (c *Checker) IsEligible(city, state string) bool {
	nc, ns := NormalizeCity(city), NormalizeState(state)
	for _, r := range c.regions {
		if r.City == nc && r.State == ns {
			return true
		}
	}
	return false
}

func (c *Checker) Regions() []Region {
	return append([]Region(nil), c.regions...)
}

// "João Pessoa" -> "JOAO PESSOA"
func NormalizeCity(s string) string {
	// transformerは状態を持つので都度作る
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToUpper(strings.TrimSpace(out))
}

func NormalizeState(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

var (
	postalCodeInText = regexp.MustCompile(`\b\d{5}-?\d{3}\b`)
	nonDigit         = regexp.MustCompile(`\D`)
)

// 自由入力の住所から最初のCEPを取り出し、数字8桁で返す。
func ExtractPostalCode(address string) (string, bool) {
	m := postalCodeInText.FindString(address)
	if m == "" {
		return "", false
	}
	return strings.ReplaceAll(m, "-", ""), true
}

// 数字以外を除いて8桁ならOK
func CleanPostalCode(s string) (string, bool) {
	d := nonDigit.ReplaceAllString(s, "")
	if len(d) != 8 {
		return "", false
	}
	return d, true
}
