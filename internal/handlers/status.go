// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"gitforum/internal/apperr"
	"gitforum/internal/buildstatus"
)

// commitIDPattern accepts git object ids and the in-memory store's CIDs.
var commitIDPattern = regexp.MustCompile(`^[A-Za-z0-9]{7,128}$`)

// Status serves build status lookups for submitted commits.
type Status struct {
	checker buildstatus.Checker
}

// NewStatus creates the status handler.
func NewStatus(checker buildstatus.Checker) *Status {
	return &Status{checker: checker}
}

// CheckWorkflow reports the build run for ?sha=<commit> or
// ?workflowId=<run id>.
func (s *Status) CheckWorkflow(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.CheckWorkflow"
	q := r.URL.Query()
	sha := strings.TrimSpace(q.Get("sha"))
	runParam := strings.TrimSpace(q.Get("workflowId"))

	var (
		st  buildstatus.Status
		err error
	)
	switch {
	case runParam != "":
		runID, perr := strconv.ParseInt(runParam, 10, 64)
		if perr != nil || runID <= 0 {
			writeError(w, r, apperr.Validation(op, "workflowId must be a positive integer."))
			return
		}
		st, err = s.checker.ForRun(r.Context(), runID)
	case sha != "":
		if !commitIDPattern.MatchString(sha) {
			writeError(w, r, apperr.Validation(op, "sha is not a commit id."))
			return
		}
		st, err = s.checker.ForCommit(r.Context(), sha)
	default:
		writeError(w, r, apperr.Validation(op, "Missing required parameter: sha or workflowId."))
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", st)
}
