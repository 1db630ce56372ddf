package interaction

import (
	"bufio"
	"bytes"
	"embed"
	"fmt"
	"strconv"
	"strings"
)

//go:embed assets/mj_matrix.txt assets/hp_classes.txt
var assets embed.FS

// MiyazawaJernigan is the statistical contact potential over the 20
// standard amino acids.
type MiyazawaJernigan struct {
	energies map[[2]byte]float64
	symbols  map[byte]bool
}

// NewMiyazawaJernigan loads the embedded energy table.
func NewMiyazawaJernigan() (*MiyazawaJernigan, error) {
	raw, err := assets.ReadFile("assets/mj_matrix.txt")
	if err != nil {
		return nil, fmt.Errorf("failed to read MJ matrix: %w", err)
	}

	mj := &MiyazawaJernigan{
		energies: make(map[[2]byte]float64),
		symbols:  make(map[byte]bool),
	}

	var header []byte
	row := 0
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if header == nil {
			for _, f := range fields {
				header = append(header, f[0])
				mj.symbols[f[0]] = true
			}
			continue
		}

		sym := fields[0][0]
		if row >= len(header) || sym != header[row] {
			return nil, fmt.Errorf("malformed MJ matrix: unexpected row %q", fields[0])
		}
		values := fields[1:]
		if len(values) != len(header)-row {
			return nil, fmt.Errorf("malformed MJ matrix: row %q has %d values, want %d",
				fields[0], len(values), len(header)-row)
		}
		for k, v := range values {
			e, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return nil, fmt.Errorf("malformed MJ matrix value %q: %w", v, err)
			}
			other := header[row+k]
			mj.energies[pairKey(sym, other)] = e
		}
		row++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan MJ matrix: %w", err)
	}
	if row != len(header) {
		return nil, fmt.Errorf("malformed MJ matrix: %d rows for %d symbols", row, len(header))
	}

	return mj, nil
}

// Energy returns the MJ contact energy for the residue pair.
func (mj *MiyazawaJernigan) Energy(a, b byte) (float64, error) {
	if !mj.symbols[a] {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSymbol, string(a))
	}
	if !mj.symbols[b] {
		return 0, fmt.Errorf("%w: %q", ErrUnknownSymbol, string(b))
	}
	return mj.energies[pairKey(a, b)], nil
}

// ValidSymbols returns the 20 standard amino acid symbols.
func (mj *MiyazawaJernigan) ValidSymbols() map[byte]bool { return mj.symbols }

func (mj *MiyazawaJernigan) Name() string { return "mj" }

// pairKey canonicalizes an unordered residue pair.
func pairKey(a, b byte) [2]byte {
	if a > b {
		a, b = b, a
	}
	return [2]byte{a, b}
}
