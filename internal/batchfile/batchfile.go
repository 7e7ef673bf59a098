// Package batchfile decodes TOML files describing one attendance or grade batch.
//
//	[batch]
//	class_id = "5"
//	grade_id = "10"
//	date = 2026-03-09
//
//	[[absence]]
//	student_id = "1001"
//	status = "absent"
//	reason_id = 3
//
//	[[grade]]
//	student_id = "1002"
//	mark = "18.5"
package batchfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/regsync/internal/portal"
)

// File is a decoded batch file.
type File struct {
	Batch   portal.BatchContext
	Absence []portal.AbsenceRecord
	Grades  []portal.GradeRecord
}

type rawFile struct {
	Batch struct {
		ClassID       string          `toml:"class_id"`
		GradeID       string          `toml:"grade_id"`
		TermID        string          `toml:"term_id"`
		SubjectID     string          `toml:"subject_id"`
		ExamID        string          `toml:"exam_id"`
		EduSysID      string          `toml:"edu_sys_id"`
		StageID       string          `toml:"stage_id"`
		ExamGradeType int             `toml:"exam_grade_type"`
		Date          *toml.LocalDate `toml:"date"`
	} `toml:"batch"`
	Absence []struct {
		StudentID string `toml:"student_id"`
		Status    string `toml:"status"`
		ReasonID  *int   `toml:"reason_id"`
		Notes     string `toml:"notes"`
	} `toml:"absence"`
	Grade []struct {
		StudentID string `toml:"student_id"`
		Mark      string `toml:"mark"`
		Absent    *bool  `toml:"absent"`
		Notes     string `toml:"notes"`
	} `toml:"grade"`
}

// Load reads and decodes the batch file at path.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read batch file: %w", err)
	}
	return Decode(data)
}

// Decode parses a batch file. Dates are interpreted in the local time zone.
func Decode(data []byte) (File, error) {
	var raw rawFile
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&raw); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return File{}, fmt.Errorf("parse batch file: %s", strict.String())
		}
		return File{}, fmt.Errorf("parse batch file: %w", err)
	}

	out := File{
		Batch: portal.BatchContext{
			ClassID:       strings.TrimSpace(raw.Batch.ClassID),
			GradeID:       strings.TrimSpace(raw.Batch.GradeID),
			TermID:        strings.TrimSpace(raw.Batch.TermID),
			SubjectID:     strings.TrimSpace(raw.Batch.SubjectID),
			ExamID:        strings.TrimSpace(raw.Batch.ExamID),
			EduSysID:      strings.TrimSpace(raw.Batch.EduSysID),
			StageID:       strings.TrimSpace(raw.Batch.StageID),
			ExamGradeType: raw.Batch.ExamGradeType,
		},
	}
	if raw.Batch.Date != nil {
		out.Batch.Date = raw.Batch.Date.AsTime(time.Local)
	}

	for i, a := range raw.Absence {
		kind, err := portal.ParseAbsenceType(a.Status)
		if err != nil {
			return File{}, fmt.Errorf("absence %d: %w", i+1, err)
		}
		out.Absence = append(out.Absence, portal.AbsenceRecord{
			StudentID: strings.TrimSpace(a.StudentID),
			Type:      kind,
			ReasonID:  a.ReasonID,
			Notes:     a.Notes,
		})
	}
	for _, g := range raw.Grade {
		out.Grades = append(out.Grades, portal.GradeRecord{
			StudentID: strings.TrimSpace(g.StudentID),
			MarkValue: strings.TrimSpace(g.Mark),
			IsAbsent:  g.Absent,
			Notes:     g.Notes,
		})
	}
	return out, nil
}
