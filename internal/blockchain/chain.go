package blockchain

import "strings"

// Chain 链标识
type Chain string

// Family 链族
type Family string

const (
	FamilyCosmos Family = "cosmos"
	FamilyTron   Family = "tron"
	FamilyMaya   Family = "mayachain"
)

const (
	Gaia         Chain = "gaia"
	Dydx         Chain = "dydx"
	Kujira       Chain = "kujira"
	Osmosis      Chain = "osmosis"
	Terra        Chain = "terra"
	TerraClassic Chain = "terraClassic"
	Noble        Chain = "noble"
	Akash        Chain = "akash"
	Tron         Chain = "tron"
	MayaChain    Chain = "mayaChain"
)

var families = map[Chain]Family{
	Gaia:         FamilyCosmos,
	Dydx:         FamilyCosmos,
	Kujira:       FamilyCosmos,
	Osmosis:      FamilyCosmos,
	Terra:        FamilyCosmos,
	TerraClassic: FamilyCosmos,
	Noble:        FamilyCosmos,
	Akash:        FamilyCosmos,
	Tron:         FamilyTron,
	MayaChain:    FamilyMaya,
}

// aliases 常见别名, 统一小写匹配
var aliases = map[string]Chain{
	"cosmos":       Gaia,
	"gaiachain":    Gaia,
	"terraclassic": TerraClassic,
	"lunc":         TerraClassic,
	"maya":         MayaChain,
	"mayachain":    MayaChain,
	"trx":          Tron,
}

// ParseChain 解析链标识, 大小写不敏感
func ParseChain(s string) (Chain, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if c, ok := aliases[key]; ok {
		return c, true
	}
	for c := range families {
		if strings.ToLower(string(c)) == key {
			return c, true
		}
	}
	return "", false
}

// Family 所属链族
func (c Chain) Family() (Family, bool) {
	f, ok := families[c]
	return f, ok
}

func (c Chain) String() string { return string(c) }

// Chains 全部支持的链
func Chains() []Chain {
	return []Chain{Gaia, Dydx, Kujira, Osmosis, Terra, TerraClassic, Noble, Akash, Tron, MayaChain}
}
