package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Confirm asks a yes/no question on stdin. Returns true for yes.
func Confirm(prompt string) bool {
	return ConfirmFrom(os.Stdin, os.Stderr, prompt)
}

// ConfirmFrom asks a yes/no question, reading the answer from in.
func ConfirmFrom(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", StyleWarning.Render(prompt))
	line, _ := bufio.NewReader(in).ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "y" || line == "yes"
}
