package types

import "strings"

type BCFLAG uint8

const (
	BC_None BCFLAG = iota
	BC_Dirichlet
	BC_Neuman
)

var BCNameMap = map[string]BCFLAG{
	"none":      BC_None,
	"dirichlet": BC_Dirichlet,
	"neuman":    BC_Neuman,
}

func (bcf BCFLAG) String() string {
	switch bcf {
	case BC_Dirichlet:
		return "Dirichlet"
	case BC_Neuman:
		return "Neuman"
	default:
		return "None"
	}
}

// NewBCFLAG resolves a boundary name, case insensitive, into its flag, unknown names map to BC_None
func NewBCFLAG(name string) (bcf BCFLAG) {
	var ok bool
	if bcf, ok = BCNameMap[strings.ToLower(strings.TrimSpace(name))]; !ok {
		bcf = BC_None
	}
	return
}
