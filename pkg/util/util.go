// Package util contains some methods that can be used by every other package.
package util

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml"
)

// Write writes the output file according to a specific scheme. It writes the
// date, parses the structure in a TOML format and writes it. This method
// returns the file for further writing. It must be closed at the end of the
// calculation.
func Write(path string, structure interface{}) (*os.File, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(f, "Date: %v\n", time.Now().Format("2006-01-02 15:04:05 -0700 MST"))

	enc := toml.NewEncoder(f)
	err = enc.Encode(structure)
	if err != nil {
		return nil, err
	}

	f.Write([]byte{'\n'})
	return f, nil
}

// ReadCfgNonCvg reads x non converged configurations. These configurations
// will be automatically "discarded" and won't be taken into account. It is a
// very fast method. It returns the number of atoms found in the first
// configuration read.
func ReadCfgNonCvg(r *bufio.Reader, x int) (int, error) {
	if x == 0 {
		return 0, nil
	}

	for i := 0; i < 3; i++ {
		r.ReadSlice('\n')
	}

	b, _ := r.ReadSlice('\n')
	atoms, err := strconv.Atoi(string(b)[:len(b)-1])
	if err != nil {
		return 0, err
	}

	for i := 0; i < (5 + atoms); i++ {
		r.ReadSlice('\n')
	}

	// Other cfg until x
	SkipCfgs(r, x-1, atoms)

	return atoms, nil
}

// SkipCfgs skips x whole configurations of a trajectory whose number of atoms
// is already known.
func SkipCfgs(r *bufio.Reader, x, atoms int) {
	for i := 0; i < x*(9+atoms); i++ {
		r.ReadSlice('\n')
	}
}

// Pow returns x**y, the base-x exponential of y.
func Pow(x float64, n int) float64 {
	res := x
	for i := 0; i < (n - 1); i++ {
		res *= x
	}
	return res
}
