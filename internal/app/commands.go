package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/five82/regsync/internal/batchfile"
	"github.com/five82/regsync/internal/endpoints"
	"github.com/five82/regsync/internal/logtail"
	"github.com/five82/regsync/internal/portal"
	"github.com/five82/regsync/internal/prefs"
	"github.com/five82/regsync/internal/ui"
)

const defaultLogLines = 50

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func (a *app) parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", portal.ErrInvalidInput, fs.Name(), err)
	}
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	if err := a.parse(a.flagSet("login"), args); err != nil {
		return err
	}

	if a.interactive() {
		userPrefs, err := prefs.Load(a.prefsPath)
		if err != nil {
			a.logger.Warn().Err(err).Msg("prefs unavailable; using defaults")
		}
		cfg, err := a.registry.Config()
		if err != nil {
			a.logger.Warn().Err(err).Msg("endpoint config unavailable; using default base url")
		}
		res, err := ui.Run(ui.Options{
			Context:   ctx,
			Auth:      a.manager,
			Classes:   a.submitter,
			Store:     a.store,
			Prefs:     a.prefs,
			ThemeName: userPrefs.Theme,
			BaseURL:   cfg.BaseURL,
			Username:  strings.TrimSpace(a.getenv(envUsername)),
		})
		if err != nil {
			return fmt.Errorf("run ui: %w", err)
		}
		if !res.Authenticated {
			return nil
		}
		return a.printSession()
	}

	if _, err := a.authenticate(ctx); err != nil {
		return err
	}
	return a.printSession()
}

func (a *app) probe(ctx context.Context, args []string) error {
	if err := a.parse(a.flagSet("probe"), args); err != nil {
		return err
	}
	cfg, err := a.registry.Config()
	if err != nil {
		a.logger.Warn().Err(err).Msg("endpoint config unavailable; using default base url")
	}
	candidates := endpoints.CandidateOrder(cfg.CachedLoginPath, a.registry.LoginCandidates())

	result, err := a.resolver.Probe(ctx, cfg.BaseURL, candidates, nil)
	if err != nil {
		return err
	}
	if !result.Found {
		fmt.Fprintln(a.stdout, result.Message)
		return &portal.DiscoveryError{Op: endpoints.OpLogin, BaseURL: cfg.BaseURL, Tried: candidates}
	}
	fmt.Fprintf(a.stdout, "%s%s answered with status %d\n", cfg.BaseURL, result.ResolvedPath, result.StatusCode)
	return nil
}

func (a *app) classes(ctx context.Context, args []string) error {
	if err := a.parse(a.flagSet("classes"), args); err != nil {
		return err
	}
	sess, err := a.authenticate(ctx)
	if err != nil {
		return err
	}
	raw, err := a.submitter.ListClasses(ctx, sess)
	a.store.RecordResult(nil, err)
	if err != nil {
		return err
	}
	a.store.SetClasses(raw)
	return a.printJSON(raw)
}

func (a *app) absenceDetail(ctx context.Context, args []string) error {
	fs := a.flagSet("absence-detail")
	student := fs.String("student", "", "student school number")
	class := fs.String("class", "", "class id")
	grade := fs.String("grade", "", "grade id")
	start := fs.String("date", "", "start date (YYYY-MM-DD)")
	end := fs.String("end", "", "end date (YYYY-MM-DD, defaults to -date)")
	if err := a.parse(fs, args); err != nil {
		return err
	}

	q := portal.AbsenceQuery{
		StudentNo: strings.TrimSpace(*student),
		ClassID:   strings.TrimSpace(*class),
		GradeID:   strings.TrimSpace(*grade),
	}
	var err error
	if q.Start, err = parseDate("date", *start); err != nil {
		return err
	}
	if strings.TrimSpace(*end) != "" {
		if q.End, err = parseDate("end", *end); err != nil {
			return err
		}
	}

	sess, err := a.authenticate(ctx)
	if err != nil {
		return err
	}
	raw, err := a.submitter.AbsenceDetails(ctx, sess, q)
	a.store.RecordResult(nil, err)
	if err != nil {
		return err
	}
	return a.printJSON(raw)
}

func (a *app) submitAbsence(ctx context.Context, args []string) error {
	file, err := a.loadBatch("submit-absence", args)
	if err != nil {
		return err
	}
	if len(file.Absence) == 0 {
		return fmt.Errorf("%w: batch file has no [[absence]] records", portal.ErrInvalidInput)
	}
	sess, err := a.authenticate(ctx)
	if err != nil {
		return err
	}
	ack, err := a.submitter.SubmitAbsence(ctx, sess, file.Batch, file.Absence)
	return a.reportAck("absence", ack, err)
}

func (a *app) submitGrades(ctx context.Context, args []string) error {
	file, err := a.loadBatch("submit-grades", args)
	if err != nil {
		return err
	}
	if len(file.Grades) == 0 {
		return fmt.Errorf("%w: batch file has no [[grade]] records", portal.ErrInvalidInput)
	}
	sess, err := a.authenticate(ctx)
	if err != nil {
		return err
	}
	ack, err := a.submitter.SubmitGrades(ctx, sess, file.Batch, file.Grades)
	return a.reportAck("grade", ack, err)
}

func (a *app) baseURL(_ context.Context, args []string) error {
	fs := a.flagSet("base-url")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("%w: base-url takes at most one URL", portal.ErrInvalidInput)
	}
	if fs.NArg() == 1 {
		if err := a.registry.SetBaseURL(fs.Arg(0)); err != nil {
			if errors.Is(err, endpoints.ErrInvalidBaseURL) {
				return fmt.Errorf("%w: %v", portal.ErrInvalidInput, err)
			}
			return err
		}
		a.logger.Info().Str("base_url", endpoints.NormalizeBaseURL(fs.Arg(0))).Msg("base url override updated")
	}
	cfg, err := a.registry.Config()
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, cfg.BaseURL)
	return nil
}

func (a *app) log(_ context.Context, args []string) error {
	fs := a.flagSet("log")
	n := fs.Int("n", defaultLogLines, "number of entries to show")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	lines, err := logtail.Read(a.cfg.LogFile, *n)
	if err != nil {
		return err
	}
	for _, e := range logtail.Decode(lines) {
		fmt.Fprintln(a.stdout, formatEntry(e))
	}
	return nil
}

func (a *app) loadBatch(name string, args []string) (batchfile.File, error) {
	fs := a.flagSet(name)
	path := fs.String("file", "", "batch file (TOML)")
	if err := a.parse(fs, args); err != nil {
		return batchfile.File{}, err
	}
	if strings.TrimSpace(*path) == "" {
		return batchfile.File{}, fmt.Errorf("%w: %s requires -file", portal.ErrInvalidInput, name)
	}
	file, err := batchfile.Load(*path)
	if err != nil {
		return batchfile.File{}, err
	}
	return file, nil
}

func (a *app) reportAck(kind string, ack portal.Ack, err error) error {
	if err != nil {
		a.store.RecordResult(nil, err)
		return err
	}
	a.store.RecordResult(&ack, nil)
	fmt.Fprintf(a.stdout, "submitted %d %s records (status %d)\n", ack.Records, kind, ack.StatusCode)
	if len(ack.Payload) > 0 {
		return a.printJSON(ack.Payload)
	}
	return nil
}

// printSession reports the session held by the store.
func (a *app) printSession() error {
	snap := a.store.Snapshot()
	if !snap.HasSession {
		return fmt.Errorf("%w: no session", portal.ErrAuth)
	}
	sess := snap.Session
	fmt.Fprintf(a.stdout, "logged in via %s\n", snap.LoginPath)
	fmt.Fprintf(a.stdout, "user %s  role %s  school %s  teacher %s\n", sess.UserID, sess.UserRoleID, sess.SchoolID, sess.TeacherID)
	return nil
}

func (a *app) printJSON(raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		buf.Reset()
		buf.Write(raw)
	}
	buf.WriteByte('\n')
	_, err := a.stdout.Write(buf.Bytes())
	return err
}

func parseDate(name, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: -%s is required", portal.ErrInvalidInput, name)
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: -%s %q is not a YYYY-MM-DD date", portal.ErrInvalidInput, name, raw)
	}
	return t, nil
}

func formatEntry(e logtail.Entry) string {
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("2006-01-02 15:04:05"))
		b.WriteByte(' ')
	}
	if e.Level != "" {
		fmt.Fprintf(&b, "%-5s ", strings.ToUpper(e.Level))
	}
	if e.Component != "" {
		fmt.Fprintf(&b, "[%s] ", e.Component)
	}
	b.WriteString(e.Message)
	for _, k := range e.FieldKeys() {
		fmt.Fprintf(&b, " %s=%s", k, e.Fields[k])
	}
	if e.Error != "" {
		fmt.Fprintf(&b, " error=%q", e.Error)
	}
	return b.String()
}
