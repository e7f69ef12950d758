package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

var (
	// globals used to patch over calls to os.Exit() during test

	logFatalln = log.Fatalln
	logFatalf  = log.Fatalf
	osExit     = os.Exit

	// infoLogger wraps informative messages to os.Stdout without cluttering expected output in tests.
	// To be used instead on fmt.Printf(os.Stdout, ...)
	infoLogger = log.New(os.Stdout, "", 0)

	// confirmInput answers confirmation prompts
	confirmInput io.Reader = os.Stdin
)

func wrapFatalln(msg string, err error) {
	if err == nil {
		logFatalln(msg)
	} else {
		logFatalf("%v", fmt.Errorf(msg+": %w", err))
	}
}

func wrapFatalWithCodef(code int, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(os.Stderr, format+"\n", args...)
	osExit(code)
}

func userConfirm(action, name string) bool {
	log.Printf("Are you sure you want to %s %q [y|n]", action, name)
	var answer string
	_, _ = fmt.Fscanln(confirmInput, &answer)
	yesno := strings.ToLower(answer)
	return yesno == "y" || yesno == "yes"
}
