package interaction

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
)

// hpContactEnergy is the reward for a hydrophobic-hydrophobic contact.
const hpContactEnergy = -1.0

// HydrophobicPolar is the two-letter-class HP lattice model: hydrophobic
// pairs in contact contribute a fixed negative energy, every other pair
// contributes nothing.
type HydrophobicPolar struct {
	hydrophobic map[byte]bool
	symbols     map[byte]bool
}

// NewHydrophobicPolar loads the embedded residue classification.
func NewHydrophobicPolar() (*HydrophobicPolar, error) {
	raw, err := assets.ReadFile("assets/hp_classes.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to read HP classification: %w", err)
	}

	hp := &HydrophobicPolar{
		hydrophobic: make(map[byte]bool),
		symbols:     make(map[byte]bool),
	}

	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 || len(fields[0]) != 1 {
			return nil, fmt.Errorf("malformed HP classification line %q", line)
		}
		sym := fields[0][0]
		hp.symbols[sym] = true
		hp.hydrophobic[sym] = fields[1] == "1"
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan HP classification: %w", err)
	}

	return hp, nil
}

// Energy returns hpContactEnergy for two hydrophobic residues, 0 otherwise.
func (hp *HydrophobicPolar) Energy(a, b byte) (float64, error) {
	if !hp.symbols[a] {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSymbol, string(a))
	}
	if !hp.symbols[b] {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSymbol, string(b))
	}
	if hp.hydrophobic[a] && hp.hydrophobic[b] {
		return hpContactEnergy, nil
	}
	return 0, nil
}

// ValidSymbols returns the classified residue symbols.
func (hp *HydrophobicPolar) ValidSymbols() map[byte]bool { return hp.symbols }

func (hp *HydrophobicPolar) Name() string { return "hp" }
