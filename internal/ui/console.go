package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// ErrInputClosed is returned once the input stream is exhausted
var ErrInputClosed = errors.New("input closed")

// MenuChoice is an entry of the client menu
type MenuChoice int

const (
	ChoiceInvalid MenuChoice = iota
	ChoiceDownload
	ChoiceUpload
	ChoiceList
	ChoiceExit
)

// ConsoleUI implements the interactive client surface on a pair of streams
type ConsoleUI struct {
	in  io.Reader
	out io.Writer

	once  sync.Once
	lines chan string
}

// NewConsoleUI creates a console UI reading from in and writing to out
func NewConsoleUI(in io.Reader, out io.Writer) *ConsoleUI {
	return &ConsoleUI{in: in, out: out}
}

// ShowMessage displays a message to the user
func (c *ConsoleUI) ShowMessage(message string) {
	fmt.Fprintln(c.out, message)
}

// ShowListing prints a file listing as received from the server
func (c *ConsoleUI) ShowListing(listing string) {
	fmt.Fprintf(c.out, "Available files:\n%s", listing)
}

// Menu prints the options and reads one choice
func (c *ConsoleUI) Menu(ctx context.Context) (MenuChoice, error) {
	fmt.Fprint(c.out, "\nChoose an option:\n"+
		"1. Download a file\n"+
		"2. Upload a file\n"+
		"3. View file list\n"+
		"4. Exit\n")

	line, err := c.Prompt(ctx, "Enter your choice: ")
	if err != nil {
		return ChoiceInvalid, err
	}

	n, err := strconv.Atoi(line)
	if err != nil || n < int(ChoiceDownload) || n > int(ChoiceExit) {
		return ChoiceInvalid, nil
	}
	return MenuChoice(n), nil
}

// Prompt prints label and waits for one trimmed line of input, or for ctx
// to end
func (c *ConsoleUI) Prompt(ctx context.Context, label string) (string, error) {
	c.once.Do(c.startReading)

	fmt.Fprint(c.out, label)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-c.lines:
		if !ok {
			return "", ErrInputClosed
		}
		return line, nil
	}
}

// startReading scans input on a single goroutine so an abandoned prompt never
// leaves a second reader racing on the same stream
func (c *ConsoleUI) startReading() {
	c.lines = make(chan string)
	go func() {
		defer close(c.lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			c.lines <- strings.TrimSpace(scanner.Text())
		}
	}()
}
