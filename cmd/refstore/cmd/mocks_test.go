package cmd

import (
	"fmt"

	"github.com/stretchr/testify/mock"
)

type ExitMocks struct {
	mock.Mock
	fatalCalls   int
	messages     []string
	exitStatuses []int
}

func (m *ExitMocks) Fatalf(format string, v ...interface{}) {
	m.fatalCalls++
	m.messages = append(m.messages, fmt.Sprintf(format, v...))
}

func (m *ExitMocks) Fatalln(v ...interface{}) {
	m.fatalCalls++
	m.messages = append(m.messages, fmt.Sprint(v...))
}

func (m *ExitMocks) Exit(code int) {
	m.exitStatuses = append(m.exitStatuses, code)
}

// https://github.com/stretchr/testify/issues/610
func MakeFatalfMock(m *ExitMocks) func(string, ...interface{}) {
	return func(format string, v ...interface{}) {
		m.Fatalf(format, v...)
	}
}

func MakeFatallnMock(m *ExitMocks) func(...interface{}) {
	return func(v ...interface{}) {
		m.Fatalln(v...)
	}
}

func MakeExitMock(m *ExitMocks) func(int) {
	return func(code int) {
		m.Exit(code)
	}
}
