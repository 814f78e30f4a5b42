// Package chem enthält die chemischen Hilfsfunktionen des Harvesters: InChI-Parsing,
// Massenberechnung und eine einfache Strukturdarstellung als PNG.
package chem

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// InChIPrefix ist das feste Präfix jedes Standard-InChI.
const InChIPrefix = "InChI="

var (
	// ErrNotInChI wird zurückgegeben, wenn der String nicht mit InChIPrefix beginnt.
	ErrNotInChI = errors.New("not an InChI string")
	// ErrEmptyFormula wird zurückgegeben, wenn die Summenformel-Schicht fehlt.
	ErrEmptyFormula = errors.New("InChI without formula layer")
)

// Molecule ist die aus einem InChI gelesene Struktur.
type Molecule struct {
	InChI   string
	Version string
	Formula string
	// Counts enthält die Anzahl je Element inklusive Wasserstoff.
	Counts map[string]int
	// Atoms listet die Schweratome in InChI-Nummerierung (über alle Komponenten).
	Atoms []string
	// Bonds verbindet Indizes in Atoms.
	Bonds [][2]int

	bondSeen map[[2]int]bool
}

// IsInChI meldet, ob s das Standard-Präfix trägt.
func IsInChI(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), InChIPrefix)
}

// ParseInChI liest Summenformel, Verbindungs- und Protonenschicht eines InChI.
// Isotopen-, Fixed-H- und Reconnected-Schichten werden ignoriert.
func ParseInChI(s string) (*Molecule, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, InChIPrefix) {
		return nil, fmt.Errorf("%w: %q", ErrNotInChI, truncate(s, 40))
	}
	layers := strings.Split(strings.TrimPrefix(s, InChIPrefix), "/")
	if len(layers) < 2 || layers[1] == "" {
		return nil, ErrEmptyFormula
	}

	m := &Molecule{
		InChI:    s,
		Version:  layers[0],
		Formula:  layers[1],
		Counts:   map[string]int{},
		bondSeen: map[[2]int]bool{},
	}
	offsets, err := m.parseFormula(layers[1])
	if err != nil {
		return nil, err
	}

LAYERS:
	for _, layer := range layers[2:] {
		if layer == "" {
			continue
		}
		switch layer[0] {
		case 'c':
			if err := m.parseConnections(layer[1:], offsets); err != nil {
				return nil, err
			}
		case 'p':
			n, err := strconv.Atoi(layer[1:])
			if err != nil {
				return nil, fmt.Errorf("invalid proton layer %q: %w", layer, err)
			}
			m.Counts["H"] += n
			if m.Counts["H"] < 0 {
				return nil, fmt.Errorf("proton layer %q removes more hydrogens than present", layer)
			}
		case 'i', 'f', 'r':
			break LAYERS
		}
	}
	return m, nil
}

// parseFormula zählt die Elemente und legt die Schweratom-Liste an. Zurückgegeben
// wird der Start-Offset jeder (ggf. vervielfachten) Komponente in Atoms.
func (m *Molecule) parseFormula(formula string) ([]int, error) {
	var offsets []int
	for _, comp := range strings.Split(formula, ".") {
		mult, rest := leadingInt(comp, 1)
		if rest == "" {
			return nil, fmt.Errorf("empty formula component in %q", formula)
		}
		var heavy []string
		counts := map[string]int{}
		for i := 0; i < len(rest); {
			if rest[i] < 'A' || rest[i] > 'Z' {
				return nil, fmt.Errorf("unexpected %q in formula %q", rest[i], formula)
			}
			j := i + 1
			for j < len(rest) && rest[j] >= 'a' && rest[j] <= 'z' {
				j++
			}
			symbol := rest[i:j]
			if !KnownElement(symbol) {
				return nil, fmt.Errorf("unknown element %q in formula %q", symbol, formula)
			}
			n, tail := leadingInt(rest[j:], 1)
			counts[symbol] += n
			if symbol != "H" {
				for k := 0; k < n; k++ {
					heavy = append(heavy, symbol)
				}
			}
			i = len(rest) - len(tail)
		}
		for c := 0; c < mult; c++ {
			offsets = append(offsets, len(m.Atoms))
			m.Atoms = append(m.Atoms, heavy...)
			for symbol, n := range counts {
				m.Counts[symbol] += n
			}
		}
	}
	return offsets, nil
}

// parseConnections liest die /c-Schicht; Komponenten sind durch ";" getrennt,
// "2*" wiederholt eine Komponente.
func (m *Molecule) parseConnections(layer string, offsets []int) error {
	var parts []string
	for _, part := range strings.Split(layer, ";") {
		repeat := 1
		if star := strings.Index(part, "*"); star > 0 {
			n, err := strconv.Atoi(part[:star])
			if err != nil {
				return fmt.Errorf("invalid repeat in connection layer %q: %w", part, err)
			}
			repeat, part = n, part[star+1:]
		}
		for r := 0; r < repeat; r++ {
			parts = append(parts, part)
		}
	}
	for i, part := range parts {
		if i >= len(offsets) {
			break
		}
		end := len(m.Atoms)
		if i+1 < len(offsets) {
			end = offsets[i+1]
		}
		if err := m.parseChain(part, offsets[i], end); err != nil {
			return err
		}
	}
	return nil
}

// parseChain verarbeitet eine Komponente wie "1-2(3,4)5-6-1".
func (m *Molecule) parseChain(part string, offset, end int) error {
	var stack []int
	prev := -1
	for i := 0; i < len(part); {
		ch := part[i]
		switch {
		case ch >= '0' && ch <= '9':
			n, tail := leadingInt(part[i:], 0)
			idx := offset + n - 1
			if n < 1 || idx >= end {
				return fmt.Errorf("atom number %d outside formula", n)
			}
			if prev >= 0 {
				m.addBond(prev, idx)
			}
			prev = idx
			i = len(part) - len(tail)
			continue
		case ch == '(':
			stack = append(stack, prev)
		case ch == ',':
			if len(stack) == 0 {
				return fmt.Errorf("unbalanced branch in %q", part)
			}
			prev = stack[len(stack)-1]
		case ch == ')':
			if len(stack) == 0 {
				return fmt.Errorf("unbalanced branch in %q", part)
			}
			prev = stack[len(stack)-1]
			stack = stack[:len(stack)-1]
		case ch == '-':
		default:
			return fmt.Errorf("unexpected %q in connection layer", ch)
		}
		i++
	}
	return nil
}

func (m *Molecule) addBond(a, b int) {
	if a == b {
		return
	}
	if a > b {
		a, b = b, a
	}
	key := [2]int{a, b}
	if m.bondSeen[key] {
		return
	}
	m.bondSeen[key] = true
	m.Bonds = append(m.Bonds, key)
}

// ExactMass berechnet die monoisotopische Masse.
func (m *Molecule) ExactMass() float64 {
	return sumMass(m.Counts, func(e element) float64 { return e.mono })
}

// MolecularWeight berechnet die mittlere Molmasse.
func (m *Molecule) MolecularWeight() float64 {
	return sumMass(m.Counts, func(e element) float64 { return e.average })
}

func sumMass(counts map[string]int, pick func(element) float64) float64 {
	symbols := make([]string, 0, len(counts))
	for s := range counts {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	var total float64
	for _, s := range symbols {
		total += float64(counts[s]) * pick(elements[s])
	}
	return total
}

// leadingInt liest führende Ziffern; fehlen sie, wird def zurückgegeben.
func leadingInt(s string, def int) (int, string) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return def, s
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return def, s[i:]
	}
	return n, s[i:]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
