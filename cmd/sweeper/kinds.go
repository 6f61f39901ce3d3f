package main

import (
	"fmt"

	"github.com/ignatzorin/gigmarket-backend/internal/usecase/gig"
)

// kindsToRun разворачивает значение флага -kind; автозакрытие идёт первым.
func kindsToRun(kind string) ([]string, error) {
	switch kind {
	case "all", "":
		return []string{gig.SweepAutoClose, gig.SweepAutoComplete}, nil
	case gig.SweepAutoClose, gig.SweepAutoComplete:
		return []string{kind}, nil
	}
	return nil, fmt.Errorf("sweeper: неизвестный проход %q", kind)
}
