package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"xrdcc/internal/collector/history"
	"xrdcc/pkg/xrdmodel"
)

const (
	historyFileName         = "history.json"
	filteredHistoryFileName = "filtered_history.json"
	indexFileName           = "index.json"
	statusFileName          = "status.json"
	cleanupStatusFileName   = "cleanup_status.json"
)

// Config holds the retention/catalogue tunables shared by every backend
// (filesystem and object-store).
type Config struct {
	// Instance scopes document retention scanning to the documents stored
	// under the instance directory.
	Instance string

	WSDLReplaces []Replace

	FilteredHours   int
	FilteredDays    int
	FilteredMonths  int
	CleanupInterval int
	DaysToKeep      int
}

// DefaultConfig returns the default retention tunables.
func DefaultConfig() Config {
	return Config{
		FilteredHours:   24,
		FilteredDays:    30,
		FilteredMonths:  12,
		CleanupInterval: 7,
		DaysToKeep:      30,
	}
}

// Core implements the full Backend contract against any Filer, holding
// the content-addressing and retention logic in one place so the
// filesystem and object-store backends need only supply the {list, get,
// put, delete} primitives.
type Core struct {
	Filer  Filer
	Config Config
	Logger zerolog.Logger

	// Now is the clock used for catalogue/cleanup timestamps; overridden
	// in tests, defaults to time.Now.
	Now func() time.Time

	active atomic.Bool
}

// NewCore builds a Core with Now defaulted to time.Now.
func NewCore(filer Filer, cfg Config, logger zerolog.Logger) *Core {
	return &Core{
		Filer:  filer,
		Config: cfg,
		Logger: logger,
		Now:    time.Now,
	}
}

func (c *Core) clock() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Core) Active() bool { return c.active.Load() }
func (c *Core) Activate()    { c.active.Store(true) }
func (c *Core) Deactivate() {
	if c.active.CompareAndSwap(true, false) {
		c.Logger.Warn().Msg("storage backend deactivated")
	}
}

func sidecarName(docType DocType) string {
	return fmt.Sprintf("_%s_hashes", docType)
}

func (c *Core) SubsystemState(ctx context.Context, subsystemPath string, docType DocType) (string, map[string]string, error) {
	if err := c.Filer.EnsureDir(ctx, subsystemPath); err != nil {
		return "", nil, wrapErr("subsystem_state", c.Deactivate, err)
	}
	hashes, err := c.getHashes(ctx, subsystemPath, docType)
	if err != nil {
		return "", nil, wrapErr("subsystem_state", c.Deactivate, err)
	}
	return subsystemPath, hashes, nil
}

func (c *Core) getHashes(ctx context.Context, storagePath string, docType DocType) (map[string]string, error) {
	sidecarPath := path.Join(storagePath, sidecarName(docType))
	if data, err := c.Filer.Get(ctx, sidecarPath); err == nil {
		var hashes map[string]string
		if jsonErr := json.Unmarshal(data, &hashes); jsonErr == nil {
			return hashes, nil
		}
	}

	// Sidecar missing or unreadable: rebuild by rescanning the directory.
	return c.rescanHashes(ctx, storagePath, docType)
}

func contentTypeFor(fileExt string) string {
	switch fileExt {
	case "wsdl":
		return "text/xml"
	case "yaml":
		return "text/yaml"
	case "json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

func (c *Core) SaveDoc(ctx context.Context, storagePath string, hashes map[string]string, doc []byte, fileExt, serviceName string) (string, string, error) {
	normalized := Normalize(doc, c.Config.WSDLReplaces)
	hash := HashHex(normalized)

	name, isNew, err := ResolveDocName(hashes, hash, fileExt, serviceName)
	if err != nil {
		return "", "", wrapErr("save_doc", c.Deactivate, err)
	}
	if !isNew {
		return name, hash, nil
	}

	if err := c.Filer.Put(ctx, path.Join(storagePath, name), normalized, contentTypeFor(fileExt)); err != nil {
		return "", "", wrapErr("save_doc", c.Deactivate, err)
	}
	hashes[name] = hash
	return name, hash, nil
}

func (c *Core) SaveSubsystemState(ctx context.Context, storagePath string, hashes map[string]string, docType DocType) error {
	data, err := json.MarshalIndent(hashes, "", "  ")
	if err != nil {
		return wrapErr("save_subsystem_state", c.Deactivate, err)
	}
	if err := c.Filer.Put(ctx, path.Join(storagePath, sidecarName(docType)), data, "application/json"); err != nil {
		return wrapErr("save_subsystem_state", c.Deactivate, err)
	}
	return nil
}

type jsonReport struct {
	ReportTime string `json:"reportTime"`
	ReportPath string `json:"reportPath"`
}

func toJSONReports(reports []history.Report) []jsonReport {
	out := make([]jsonReport, 0, len(reports))
	for _, r := range reports {
		out = append(out, jsonReport{
			ReportTime: r.ReportTime.Format(history.DateFormat),
			ReportPath: r.ReportPath,
		})
	}
	return out
}

func (c *Core) readHistory(ctx context.Context) ([]history.Report, error) {
	data, err := c.Filer.Get(ctx, historyFileName)
	if err != nil {
		return nil, nil //nolint:nilerr // absent history.json means empty history
	}
	var raw []jsonReport
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil //nolint:nilerr // unparsable history treated as absent
	}
	out := make([]history.Report, 0, len(raw))
	for _, r := range raw {
		t, err := time.ParseInLocation(history.DateFormat, r.ReportTime, time.Local)
		if err != nil {
			continue
		}
		out = append(out, history.Report{ReportTime: t, ReportPath: r.ReportPath})
	}
	return out, nil
}

func (c *Core) writeReports(ctx context.Context, fileName string, reports []history.Report) error {
	data, err := json.MarshalIndent(toJSONReports(reports), "", "  ")
	if err != nil {
		return err
	}
	return c.Filer.Put(ctx, fileName, data, "application/json")
}

func sortReportsNewestFirst(reports []history.Report) {
	sort.Slice(reports, func(i, j int) bool { return reports[i].ReportTime.After(reports[j].ReportTime) })
}

func (c *Core) SaveCatalogue(ctx context.Context, results map[string]xrdmodel.Subsystem) error {
	now := c.clock()

	keys := make([]string, 0, len(results))
	for k := range results {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	exported := make([]xrdmodel.ExportedSubsystem, 0, len(keys))
	for _, k := range keys {
		exported = append(exported, xrdmodel.Export(results[k]))
	}

	snapshotData, err := json.MarshalIndent(exported, "", "  ")
	if err != nil {
		return wrapErr("save_catalogue", c.Deactivate, err)
	}

	snapshotName := history.SnapshotFileName(now)
	if err := c.Filer.Put(ctx, snapshotName, snapshotData, "application/json"); err != nil {
		return wrapErr("save_catalogue", c.Deactivate, err)
	}

	reports, err := c.readHistory(ctx)
	if err != nil {
		return wrapErr("save_catalogue", c.Deactivate, err)
	}
	reports = append(reports, history.Report{ReportTime: now, ReportPath: snapshotName})
	sortReportsNewestFirst(reports)
	if err := c.writeReports(ctx, historyFileName, reports); err != nil {
		return wrapErr("save_catalogue", c.Deactivate, err)
	}

	filtered := history.FilteredHistory(reports, now, c.Config.FilteredHours, c.Config.FilteredDays, c.Config.FilteredMonths)
	if err := c.writeReports(ctx, filteredHistoryFileName, filtered); err != nil {
		return wrapErr("save_catalogue", c.Deactivate, err)
	}

	if err := c.Filer.Copy(ctx, snapshotName, indexFileName); err != nil {
		return wrapErr("save_catalogue", c.Deactivate, err)
	}

	statusData, _ := json.MarshalIndent(map[string]string{"lastReport": now.Format(history.DateFormat)}, "", "  ")
	if err := c.Filer.Put(ctx, statusFileName, statusData, "application/json"); err != nil {
		return wrapErr("save_catalogue", c.Deactivate, err)
	}

	if err := c.cleanup(ctx, now); err != nil {
		return wrapErr("save_catalogue", c.Deactivate, err)
	}

	return nil
}

type cleanupStatus struct {
	LastCleanup string `json:"lastCleanup"`
}

// cleanup runs snapshot and document retention if at least
// CleanupInterval days have elapsed since the last cleanup.
func (c *Core) cleanup(ctx context.Context, now time.Time) error {
	var lastCleanup *time.Time
	if data, err := c.Filer.Get(ctx, cleanupStatusFileName); err == nil {
		var status cleanupStatus
		if jsonErr := json.Unmarshal(data, &status); jsonErr == nil {
			if t, parseErr := time.ParseInLocation(history.DateFormat, status.LastCleanup, time.Local); parseErr == nil {
				lastCleanup = &t
			}
		}
	}

	if lastCleanup != nil {
		if now.AddDate(0, 0, -c.Config.CleanupInterval).Before(history.DayStart(*lastCleanup)) {
			c.Logger.Info().Msg("cleanup interval not yet elapsed")
			return nil
		}
	}

	c.Logger.Info().Msg("starting cleanup")

	if err := c.cleanupSnapshots(ctx, now); err != nil {
		return err
	}
	if err := c.cleanupDocuments(ctx); err != nil {
		return err
	}

	statusData, _ := json.MarshalIndent(cleanupStatus{LastCleanup: now.Format(history.DateFormat)}, "", "  ")
	return c.Filer.Put(ctx, cleanupStatusFileName, statusData, "application/json")
}

func (c *Core) listSnapshotReports(ctx context.Context) ([]history.Report, error) {
	names, err := c.Filer.List(ctx, "", false)
	if err != nil {
		return nil, err
	}
	reports := make([]history.Report, 0)
	for _, n := range names {
		if t, ok := history.ParseSnapshotFileName(path.Base(n)); ok {
			reports = append(reports, history.Report{ReportTime: t, ReportPath: path.Base(n)})
		}
	}
	sortReportsNewestFirst(reports)
	return reports, nil
}

func (c *Core) cleanupSnapshots(ctx context.Context, now time.Time) error {
	reports, err := c.listSnapshotReports(ctx)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		c.Logger.Warn().Msg("no snapshots found during cleanup")
		return nil
	}

	freshTime := history.DayStart(now).AddDate(0, 0, -c.Config.DaysToKeep)
	keep := history.ReportsToKeep(reports, freshTime)

	removed := 0
	for _, r := range reports {
		if keep[r.ReportPath] {
			continue
		}
		if err := c.Filer.Delete(ctx, r.ReportPath); err != nil {
			return err
		}
		removed++
	}

	if removed == 0 {
		c.Logger.Info().Msg("no old snapshots to remove")
		return nil
	}
	c.Logger.Info().Int("count", removed).Msg("removed old snapshots")

	survivors, err := c.listSnapshotReports(ctx)
	if err != nil {
		return err
	}
	return c.writeReports(ctx, historyFileName, survivors)
}

func (c *Core) cleanupDocuments(ctx context.Context) error {
	reports, err := c.listSnapshotReports(ctx)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		return nil
	}

	used := map[string]bool{}
	for _, r := range reports {
		data, err := c.Filer.Get(ctx, r.ReportPath)
		if err != nil {
			continue
		}
		var snapshot []xrdmodel.ExportedSubsystem
		if err := json.Unmarshal(data, &snapshot); err != nil {
			continue
		}
		for _, sub := range snapshot {
			for _, m := range sub.Methods {
				if m.WSDL != "" {
					used[m.WSDL] = true
				}
			}
			for _, s := range sub.Services {
				if s.OpenAPI != "" {
					used[s.OpenAPI] = true
				}
			}
		}
	}
	if len(used) == 0 {
		c.Logger.Info().Msg("no documents referenced by any surviving snapshot")
		return nil
	}

	available, err := c.Filer.List(ctx, c.Config.Instance, true)
	if err != nil {
		return err
	}

	changedDirs := map[string]bool{}
	removed := 0
	for _, docPath := range available {
		if !IsDocFile(path.Base(docPath)) {
			continue
		}
		if used[docPath] {
			continue
		}
		if err := c.Filer.Delete(ctx, docPath); err != nil {
			return err
		}
		changedDirs[path.Dir(docPath)] = true
		removed++
	}
	if removed > 0 {
		c.Logger.Info().Int("count", removed).Msg("removed unused documents")
	} else {
		c.Logger.Info().Msg("no unused documents found")
	}

	for dir := range changedDirs {
		for _, docType := range []DocType{DocTypeWSDL, DocTypeOpenAPI} {
			hashes, err := c.rescanHashes(ctx, dir, docType)
			if err != nil {
				return err
			}
			if err := c.SaveSubsystemState(ctx, dir, hashes, docType); err != nil {
				return err
			}
		}
	}
	return nil
}

// rescanHashes rebuilds a directory's hash index by hashing every file
// currently on disk, ignoring any existing sidecar. Used after deleting
// documents during cleanup, where the sidecar still lists filenames that
// no longer exist and a cache-preferring lookup would carry them forward.
func (c *Core) rescanHashes(ctx context.Context, storagePath string, docType DocType) (map[string]string, error) {
	names, err := c.Filer.List(ctx, storagePath, false)
	if err != nil {
		return nil, err
	}
	baseNames := make([]string, 0, len(names))
	for _, n := range names {
		baseNames = append(baseNames, path.Base(n))
	}
	return HashDocs(baseNames, docType, func(name string) ([]byte, error) {
		return c.Filer.Get(ctx, path.Join(storagePath, name))
	})
}
