package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sort"
	"strings"
	"time"

	infralogger "github.com/jonesrussell/north-cloud/aisearch/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/aisearch/internal/domain"
	"github.com/jonesrussell/north-cloud/aisearch/internal/searchapi"
	"github.com/jonesrussell/north-cloud/aisearch/internal/storage"
)

// Diagnostic check names.
const (
	CheckFetch        = "fetch"
	CheckType         = "type"
	CheckContainer    = "container"
	CheckCredentials  = "credentials"
	CheckTest         = "connection_test"
	CheckReferences   = "referenced_by"
	CheckStorage      = "storage"
	CheckReachability = "reachability"
	CheckAuth         = "authentication"
	CheckQuota        = "quota"
	CheckDataSource   = "datasource"
	CheckIndex        = "index"
	CheckMappings     = "field_mappings"
	CheckLastRun      = "last_run"
	CheckStatus       = "status"
)

// maxReportedIssues caps the item errors copied into findings.
const maxReportedIssues = 3

// ContainerProber checks blob containers with local credentials.
type ContainerProber interface {
	Probe(ctx context.Context, container string) (*storage.ProbeResult, error)
}

// DiagnoseOptions tunes DiagnoseDatasource.
type DiagnoseOptions struct {
	// SkipTest skips POST /datasources/{name}/test.
	SkipTest bool
	// SkipStorage skips the blob container probe even when a prober is configured.
	SkipStorage bool
}

// DiagnosticsService produces interpretive findings about resources.
type DiagnosticsService struct {
	base
	prober ContainerProber
}

// NewDiagnosticsService creates a diagnostics service. prober may be nil.
func NewDiagnosticsService(deps Deps, prober ContainerProber) *DiagnosticsService {
	return &DiagnosticsService{base: newBase(deps), prober: prober}
}

// DiagnoseDatasource fetches a datasource and reports on its definition,
// the service's connection test, referencing indexers and the backing container.
func (s *DiagnosticsService) DiagnoseDatasource(ctx context.Context, name string, opts DiagnoseOptions) (*domain.Diagnosis, error) {
	if err := requireField("name", name); err != nil {
		return nil, err
	}
	diag := domain.NewDiagnosis(domain.ResourceDataSource, name)

	ds, err := s.client.GetDataSource(ctx, name)
	if err != nil {
		if fetchErr := s.addFetchFailure(ctx, diag, "get datasource", err); fetchErr != nil {
			return nil, fetchErr
		}
		return diag, nil
	}
	diag.Add(CheckFetch, domain.SeverityOK, "datasource retrieved")

	s.checkDefinition(diag, ds)

	if !opts.SkipTest {
		s.checkConnectionTest(ctx, diag, name)
	}

	s.checkReferences(ctx, diag, name)

	if !opts.SkipStorage && s.prober != nil && domain.IsBlobStorage(ds.Type) && ds.Container != nil && ds.Container.Name != "" {
		s.checkStorage(ctx, diag, ds.Container.Name)
	}

	s.logger.Debug("Datasource diagnosed",
		infralogger.String("datasource", name),
		infralogger.String("worst", string(diag.Worst())),
	)
	return diag, nil
}

// addFetchFailure records why the primary resource could not be read.
// Transport failures are returned instead, with the probe attached.
func (s *DiagnosticsService) addFetchFailure(ctx context.Context, diag *domain.Diagnosis, op string, err error) error {
	if searchapi.IsConnectionError(err) {
		return s.connectionAware(ctx, op, err)
	}
	if errors.Is(err, searchapi.ErrNotFound) {
		diag.Add(CheckFetch, domain.SeverityFail, fmt.Sprintf("%s %q not found", diag.Resource, diag.Name))
		return nil
	}
	if code, ok := searchapi.StatusCode(err); ok {
		diag.Add(CheckFetch, domain.SeverityFail, fmt.Sprintf("request rejected with status %d: %s", code, apiMessage(err)))
		return nil
	}
	return err
}

func (s *DiagnosticsService) checkDefinition(diag *domain.Diagnosis, ds *domain.DataSource) {
	switch {
	case ds.Type == "":
		diag.Add(CheckType, domain.SeverityFail, "type is missing")
	case !slices.Contains(domain.KnownDataSourceTypes, ds.Type):
		diag.Add(CheckType, domain.SeverityWarn, fmt.Sprintf("unrecognised type %q", ds.Type))
	default:
		diag.Add(CheckType, domain.SeverityOK, ds.Type)
	}

	switch {
	case ds.Container == nil:
		diag.Add(CheckContainer, domain.SeverityFail, "container is missing")
	case ds.Container.Name == "":
		diag.Add(CheckContainer, domain.SeverityFail, "container name is missing")
	case ds.Container.Query != "":
		diag.Add(CheckContainer, domain.SeverityOK, fmt.Sprintf("%s (query %q)", ds.Container.Name, ds.Container.Query))
	default:
		diag.Add(CheckContainer, domain.SeverityOK, ds.Container.Name)
	}

	switch {
	case ds.Credentials == nil:
		diag.Add(CheckCredentials, domain.SeverityWarn, "credentials block absent from response")
	case ds.Credentials.ConnectionString == nil:
		diag.Add(CheckCredentials, domain.SeverityOK, "connection string present and redacted by the service")
	case *ds.Credentials.ConnectionString == "":
		diag.Add(CheckCredentials, domain.SeverityFail, "connection string is empty")
	default:
		diag.Add(CheckCredentials, domain.SeverityWarn, "connection string returned unredacted")
	}
}

func (s *DiagnosticsService) checkConnectionTest(ctx context.Context, diag *domain.Diagnosis, name string) {
	res, err := s.client.TestDataSource(ctx, name)
	if err == nil {
		diag.Add(CheckTest, domain.SeverityOK, fmt.Sprintf("connection test passed (status %d)", res.StatusCode))
		return
	}

	code, ok := searchapi.StatusCode(err)
	switch {
	case ok && (code == http.StatusNotFound || code == http.StatusMethodNotAllowed):
		diag.Add(CheckTest, domain.SeverityWarn, fmt.Sprintf("connection test not supported (status %d)", code))
	case ok:
		diag.Add(CheckTest, domain.SeverityFail, fmt.Sprintf("connection test failed (status %d): %s", code, apiMessage(err)))
	default:
		diag.Add(CheckTest, domain.SeverityFail, "connection test could not be sent: "+err.Error())
	}
}

func (s *DiagnosticsService) checkReferences(ctx context.Context, diag *domain.Diagnosis, name string) {
	indexers, err := s.client.ListIndexers(ctx)
	if err != nil {
		diag.Add(CheckReferences, domain.SeverityWarn, "could not list indexers: "+err.Error())
		return
	}

	var names []string
	for _, ix := range indexers {
		if ix.DataSourceName == name {
			names = append(names, ix.Name)
		}
	}
	if len(names) == 0 {
		diag.Add(CheckReferences, domain.SeverityWarn, "no indexer uses this datasource")
		return
	}
	sort.Strings(names)
	diag.Add(CheckReferences, domain.SeverityOK, strings.Join(names, ", "))
}

func (s *DiagnosticsService) checkStorage(ctx context.Context, diag *domain.Diagnosis, container string) {
	res, err := s.prober.Probe(ctx, container)
	switch {
	case err != nil:
		diag.Add(CheckStorage, domain.SeverityWarn, "storage probe failed: "+err.Error())
	case res.AccessDenied:
		diag.Add(CheckStorage, domain.SeverityWarn, fmt.Sprintf("access to container %q denied with local credentials", container))
	case !res.Exists:
		diag.Add(CheckStorage, domain.SeverityFail, fmt.Sprintf("container %q not found in storage account", container))
	case len(res.SampleBlobs) == 0:
		diag.Add(CheckStorage, domain.SeverityWarn, fmt.Sprintf("container %q is empty", container))
	default:
		more := ""
		if res.Truncated {
			more = "+"
		}
		diag.Add(CheckStorage, domain.SeverityOK,
			fmt.Sprintf("container %q holds %d%s blobs (e.g. %s)", container, len(res.SampleBlobs), more, res.SampleBlobs[0]))
	}
}

// CheckConnectivity tells a down service from rejected credentials.
func (s *DiagnosticsService) CheckConnectivity(ctx context.Context) (*domain.Diagnosis, error) {
	diag := domain.NewDiagnosis(domain.ResourceService, "")

	probe := s.client.Reachability(ctx)
	if !probe.Reachable {
		diag.Add(CheckReachability, domain.SeverityFail, "service unreachable: "+probe.Error)
		return diag, nil
	}
	diag.Add(CheckReachability, domain.SeverityOK, fmt.Sprintf("reachable in %s", probe.Latency.Round(time.Millisecond)))

	indexes, err := s.client.ListIndexes(ctx)
	if err != nil {
		code, ok := searchapi.StatusCode(err)
		switch {
		case ok && (code == http.StatusUnauthorized || code == http.StatusForbidden):
			diag.Add(CheckAuth, domain.SeverityFail, fmt.Sprintf("credentials rejected (status %d)", code))
		case ok && code == http.StatusTooManyRequests:
			diag.Add(CheckAuth, domain.SeverityWarn, "requests are being throttled (status 429)")
		default:
			diag.Add(CheckAuth, domain.SeverityFail, "listing indexes failed: "+err.Error())
		}
		return diag, nil
	}
	diag.Add(CheckAuth, domain.SeverityOK, fmt.Sprintf("authenticated, %d indexes visible", len(indexes)))

	s.checkQuota(ctx, diag)
	return diag, nil
}

func (s *DiagnosticsService) checkQuota(ctx context.Context, diag *domain.Diagnosis) {
	stats, err := s.client.ServiceStatistics(ctx)
	if err != nil {
		diag.Add(CheckQuota, domain.SeverityWarn, "service statistics unavailable: "+err.Error())
		return
	}

	keys := make([]string, 0, len(stats.Counters))
	for k := range stats.Counters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	exhausted := false
	for _, k := range keys {
		c := stats.Counters[k]
		if c.Quota != nil && c.Usage >= *c.Quota {
			exhausted = true
			diag.Add(CheckQuota, domain.SeverityWarn, fmt.Sprintf("%s at quota (%d/%d)", k, c.Usage, *c.Quota))
		}
	}
	if !exhausted {
		diag.Add(CheckQuota, domain.SeverityOK, "all counters below quota")
	}
}

// DiagnoseIndexer checks an indexer's dependencies and its last run.
func (s *DiagnosticsService) DiagnoseIndexer(ctx context.Context, name string) (*domain.Diagnosis, error) {
	if err := requireField("name", name); err != nil {
		return nil, err
	}
	diag := domain.NewDiagnosis(domain.ResourceIndexer, name)

	ix, err := s.client.GetIndexer(ctx, name)
	if err != nil {
		if fetchErr := s.addFetchFailure(ctx, diag, "get indexer", err); fetchErr != nil {
			return nil, fetchErr
		}
		return diag, nil
	}
	diag.Add(CheckFetch, domain.SeverityOK, "indexer retrieved")

	s.checkDependency(ctx, diag, CheckDataSource, ix.DataSourceName, func(ctx context.Context) error {
		_, depErr := s.client.GetDataSource(ctx, ix.DataSourceName)
		return depErr
	})

	var index *domain.Index
	s.checkDependency(ctx, diag, CheckIndex, ix.TargetIndexName, func(ctx context.Context) error {
		var depErr error
		index, depErr = s.client.GetIndex(ctx, ix.TargetIndexName)
		return depErr
	})
	if index != nil {
		checkMappings(diag, ix, index)
	}

	status, err := s.client.IndexerStatus(ctx, name)
	if err != nil {
		diag.Add(CheckStatus, domain.SeverityWarn, "status unavailable: "+err.Error())
		return diag, nil
	}
	checkStatus(diag, status)
	return diag, nil
}

func (s *DiagnosticsService) checkDependency(ctx context.Context, diag *domain.Diagnosis, check, name string, fetch func(context.Context) error) {
	if name == "" {
		diag.Add(check, domain.SeverityFail, check+" name is missing")
		return
	}
	err := fetch(ctx)
	switch {
	case err == nil:
		diag.Add(check, domain.SeverityOK, name)
	case errors.Is(err, searchapi.ErrNotFound):
		diag.Add(check, domain.SeverityFail, fmt.Sprintf("%q not found", name))
	default:
		diag.Add(check, domain.SeverityWarn, fmt.Sprintf("could not fetch %q: %v", name, err))
	}
}

func checkMappings(diag *domain.Diagnosis, ix *domain.Indexer, index *domain.Index) {
	var missing []string
	for _, m := range ix.FieldMappings {
		target := m.TargetFieldName
		if target == "" {
			target = m.SourceFieldName
		}
		if !index.HasField(target) {
			missing = append(missing, target)
		}
	}
	if len(missing) > 0 {
		diag.Add(CheckMappings, domain.SeverityFail,
			fmt.Sprintf("mapped fields missing from index %q: %s", index.Name, strings.Join(missing, ", ")))
		return
	}
	diag.Add(CheckMappings, domain.SeverityOK, fmt.Sprintf("%d mappings resolve", len(ix.FieldMappings)))
}

func checkStatus(diag *domain.Diagnosis, status *domain.IndexerStatus) {
	if status.Status == "error" {
		diag.Add(CheckStatus, domain.SeverityFail, "indexer is in error state")
	} else {
		diag.Add(CheckStatus, domain.SeverityOK, status.Status)
	}

	last := status.LastResult
	if last == nil {
		diag.Add(CheckLastRun, domain.SeverityWarn, "indexer has not run yet")
		return
	}

	switch last.Status {
	case domain.ExecutionStatusSuccess:
		diag.Add(CheckLastRun, domain.SeverityOK,
			fmt.Sprintf("succeeded: %d processed, %d failed", last.ItemsProcessed, last.ItemsFailed))
	case domain.ExecutionStatusInProgress:
		diag.Add(CheckLastRun, domain.SeverityOK, "run in progress")
	case domain.ExecutionStatusTransientFailure, domain.ExecutionStatusPersistentFailure:
		msg := last.ErrorMessage
		if msg == "" {
			msg = last.Status
		}
		diag.Add(CheckLastRun, domain.SeverityFail, msg)
	default:
		diag.Add(CheckLastRun, domain.SeverityWarn, "last run status "+last.Status)
	}

	for i, issue := range last.Errors {
		if i == maxReportedIssues {
			diag.Add(CheckLastRun, domain.SeverityFail, fmt.Sprintf("%d more item errors", len(last.Errors)-maxReportedIssues))
			break
		}
		diag.Add(CheckLastRun, domain.SeverityFail, issueText(issue))
	}
	if len(last.Warnings) > 0 {
		diag.Add(CheckLastRun, domain.SeverityWarn, fmt.Sprintf("%d item warnings", len(last.Warnings)))
	}
}

func issueText(issue domain.ItemIssue) string {
	if issue.Key != "" {
		return issue.Key + ": " + issue.Text()
	}
	return issue.Text()
}

func apiMessage(err error) string {
	var apiErr *searchapi.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	code, _ := searchapi.StatusCode(err)
	return http.StatusText(code)
}
