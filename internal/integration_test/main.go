// 指示: miu200521358
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/miu200521358/mu_rig_retarget/pkg/adapter/io_model/gltf"
	"github.com/miu200521358/mu_rig_retarget/pkg/adapter/optimizer"
	"github.com/miu200521358/mu_rig_retarget/pkg/shared/logging"
	"github.com/miu200521358/mu_rig_retarget/pkg/shared/merrors"
	"github.com/miu200521358/mu_rig_retarget/pkg/usecase/minteractor"
)

const (
	batchOutputDirMode = 0o755

	statusSucceeded      = "succeeded"
	statusFailed         = "failed"
	statusDryRun         = "dry_run"
	statusSkippedMissing = "skipped_missing"
)

// batchConfig はバッチ書き出しの実行設定を表す。
type batchConfig struct {
	JobsPath   string
	OutputRoot string
	DryRun     bool
	FailFast   bool
}

// jobFile はジョブ一覧ファイルを表す。
type jobFile struct {
	Jobs []exportJob `yaml:"jobs"`
}

// exportJob は1件分のアニメーション書き出し指定を表す。
type exportJob struct {
	Name       string `yaml:"name"`
	Scene      string `yaml:"scene"`
	Root       string `yaml:"root"`
	Skeleton   string `yaml:"skeleton"`
	Output     string `yaml:"output"`
	Level      int    `yaml:"level"`
	FrameStart *int   `yaml:"frame_start"`
	FrameEnd   *int   `yaml:"frame_end"`
}

// exportEntry は1件分の解決済み入力情報を表す。
type exportEntry struct {
	Index      int
	Job        exportJob
	JobName    string
	ScenePath  string
	Skeleton   string
	CaseDir    string
	OutputPath string
}

// exportResult は1件分の書き出し結果を表す。
type exportResult struct {
	Entry     exportEntry
	Status    string
	Duration  time.Duration
	Err       error
	StageInfo string
}

// exportProgressCollector は ExportAnimation の進捗イベントを収集する。
type exportProgressCollector struct {
	eventCounts map[minteractor.ExportProgressEventType]int
	linkMax     int
	frameMax    int
	nodeMax     int
}

// main はジョブ一覧に従ってアニメーションを一括書き出しする。
func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run は実行設定を解決して一括書き出しを実行し、終了コードを返す。
func run(args []string, out io.Writer, errOut io.Writer) int {
	config, err := parseBatchConfig(args, errOut)
	if err != nil {
		fmt.Fprintf(errOut, "設定解析に失敗しました: %v\n", err)
		return 2
	}
	jobs, err := loadJobs(config.JobsPath)
	if err != nil {
		fmt.Fprintf(errOut, "ジョブ一覧の読み込みに失敗しました: %v\n", err)
		return 2
	}
	entries := buildExportEntries(config.OutputRoot, config.JobsPath, jobs)
	if len(entries) == 0 {
		fmt.Fprintln(errOut, "書き出し対象のジョブがありません")
		return 2
	}

	results := executeBatchExport(config, entries, out)
	printBatchSummary(out, results)
	if err := collectFailures(results); err != nil {
		for _, failure := range merrors.Errors(err) {
			fmt.Fprintf(errOut, "失敗: %v\n", failure)
		}
		return 1
	}
	return 0
}

// parseBatchConfig はコマンドライン引数から実行設定を構築する。
func parseBatchConfig(args []string, errOut io.Writer) (batchConfig, error) {
	defaultOutputRoot, err := resolveDefaultOutputRoot()
	if err != nil {
		return batchConfig{}, err
	}
	flags := pflag.NewFlagSet("integration_test", pflag.ContinueOnError)
	flags.SetOutput(errOut)
	jobsPath := flags.String("jobs", "", "ジョブ一覧YAML")
	outputRoot := flags.String("output-root", defaultOutputRoot, "書き出し結果の出力ルートディレクトリ")
	dryRun := flags.Bool("dry-run", false, "実書き出しせず、入力解決と出力先計画のみ表示する")
	failFast := flags.Bool("fail-fast", false, "失敗時に即時終了する")
	if err := flags.Parse(args); err != nil {
		return batchConfig{}, err
	}

	if strings.TrimSpace(*jobsPath) == "" {
		return batchConfig{}, errors.New("jobs が空です")
	}
	trimmedOutputRoot := strings.TrimSpace(*outputRoot)
	if trimmedOutputRoot == "" {
		return batchConfig{}, errors.New("output-root が空です")
	}
	return batchConfig{
		JobsPath:   filepath.Clean(*jobsPath),
		OutputRoot: filepath.Clean(trimmedOutputRoot),
		DryRun:     *dryRun,
		FailFast:   *failFast,
	}, nil
}

// resolveDefaultOutputRoot はスクリプト配置ディレクトリ基準の既定出力先を返す。
func resolveDefaultOutputRoot() (string, error) {
	_, currentFilePath, _, ok := runtime.Caller(0)
	if !ok {
		return "", errors.New("実行ファイル位置を取得できません")
	}
	currentDir := filepath.Dir(currentFilePath)
	return filepath.Join(currentDir, "output"), nil
}

// loadJobs はジョブ一覧YAMLを読み込む。
func loadJobs(path string) ([]exportJob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, merrors.NewMissingInput("ジョブ一覧が見つかりません: %s", err, path)
	}
	var file jobFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, merrors.NewParseFailed("ジョブ一覧の解析に失敗しました: %s", err, path)
	}
	return file.Jobs, nil
}

// buildExportEntries はジョブ一覧から書き出し対象エントリを生成する。相対パスはジョブ一覧基準で解決する。
func buildExportEntries(outputRoot string, jobsPath string, jobs []exportJob) []exportEntry {
	baseDir := filepath.Dir(jobsPath)
	entries := make([]exportEntry, 0, len(jobs))
	for i, job := range jobs {
		jobName := resolveJobName(job)
		safeJobName := sanitizePathComponent(jobName)
		caseDir := filepath.Join(outputRoot, fmt.Sprintf("%03d_%s", i+1, safeJobName))
		outputPath := strings.TrimSpace(job.Output)
		if outputPath == "" {
			outputPath = filepath.Join(caseDir, safeJobName+".glb")
		} else {
			outputPath = resolveJobPath(baseDir, outputPath)
			caseDir = filepath.Dir(outputPath)
		}
		entries = append(entries, exportEntry{
			Index:      i + 1,
			Job:        job,
			JobName:    jobName,
			ScenePath:  resolveJobPath(baseDir, job.Scene),
			Skeleton:   resolveJobPath(baseDir, job.Skeleton),
			CaseDir:    caseDir,
			OutputPath: outputPath,
		})
	}
	return entries
}

// executeBatchExport は全ジョブの書き出しを順次実行する。
func executeBatchExport(config batchConfig, entries []exportEntry, out io.Writer) []exportResult {
	results := make([]exportResult, 0, len(entries))
	repository := gltf.NewGltfRepository()
	usecase := minteractor.NewRetargetUsecase(minteractor.RetargetUsecaseDeps{
		AssetReader: repository,
		AssetWriter: repository,
		Optimizer:   optimizer.NewCurveOptimizer(),
	})

	total := len(entries)
	for _, entry := range entries {
		fmt.Fprintf(out, "[%d/%d] 書き出し開始: job=%s\n", entry.Index, total, entry.JobName)
		result := exportJobEntry(usecase, config, entry)
		results = append(results, result)
		switch result.Status {
		case statusSucceeded:
			fmt.Fprintf(out, "[%d/%d] 書き出し成功: job=%s output=%s elapsed=%s\n", entry.Index, total, entry.JobName, entry.OutputPath, result.Duration.Round(time.Millisecond))
			if strings.TrimSpace(result.StageInfo) != "" {
				fmt.Fprintf(out, "[%d/%d] ExportAnimation進捗: %s\n", entry.Index, total, result.StageInfo)
			}
		case statusDryRun:
			fmt.Fprintf(out, "[%d/%d] DRY-RUN: job=%s scene=%s skeleton=%s output=%s\n", entry.Index, total, entry.JobName, entry.ScenePath, entry.Skeleton, entry.OutputPath)
		case statusSkippedMissing:
			fmt.Fprintf(out, "[%d/%d] 入力不足でスキップ: job=%s reason=%v\n", entry.Index, total, entry.JobName, result.Err)
		default:
			fmt.Fprintf(out, "[%d/%d] 書き出し失敗: job=%s reason=%v\n", entry.Index, total, entry.JobName, result.Err)
			if config.FailFast {
				return results
			}
		}
	}
	return results
}

// exportJobEntry は1件分の書き出しを実行する。
func exportJobEntry(usecase *minteractor.RetargetUsecase, config batchConfig, entry exportEntry) exportResult {
	result := exportResult{
		Entry:  entry,
		Status: statusFailed,
	}
	for _, path := range []string{entry.ScenePath, entry.Skeleton} {
		if _, err := os.Stat(path); err != nil {
			result.Status = statusSkippedMissing
			result.Err = err
			return result
		}
	}
	if config.DryRun {
		result.Status = statusDryRun
		return result
	}
	if err := os.MkdirAll(entry.CaseDir, batchOutputDirMode); err != nil {
		result.Err = fmt.Errorf("出力ディレクトリ作成に失敗しました: %w", err)
		return result
	}

	startedAt := time.Now()
	scene, err := usecase.LoadScene(nil, entry.ScenePath)
	if err != nil {
		result.Err = fmt.Errorf("LoadSceneに失敗しました: %w", err)
		return result
	}
	driverRoot := scene.FindByName(entry.Job.Root)
	if driverRoot < 0 {
		result.Err = merrors.NewMissingInput("ドライバールートが見つかりません: %s", nil, entry.Job.Root)
		return result
	}
	progressCollector := newExportProgressCollector()
	if _, err := usecase.ExportAnimation(minteractor.ExportRequest{
		Scene:            scene,
		DriverRootIndex:  driverRoot,
		SkeletonPath:     entry.Skeleton,
		OutputPath:       entry.OutputPath,
		CompressionLevel: entry.Job.Level,
		FrameStart:       entry.Job.FrameStart,
		FrameEnd:         entry.Job.FrameEnd,
		ProgressReporter: progressCollector,
	}); err != nil {
		result.Err = fmt.Errorf("ExportAnimationに失敗しました: %w", err)
		return result
	}

	result.Status = statusSucceeded
	result.Duration = time.Since(startedAt)
	result.StageInfo = progressCollector.Summary()
	logging.DefaultLogger().Debug("バッチ書き出し完了: job=%s %s", entry.JobName, result.StageInfo)
	return result
}

// collectFailures は失敗したジョブのエラーをまとめる。
func collectFailures(results []exportResult) error {
	var errs error
	for _, result := range results {
		if result.Status == statusFailed {
			errs = merrors.Append(errs, fmt.Errorf("%s: %w", result.Entry.JobName, result.Err))
		}
	}
	return errs
}

// printBatchSummary は書き出し結果の集計を表示する。
func printBatchSummary(out io.Writer, results []exportResult) {
	counts := map[string]int{}
	for _, result := range results {
		counts[result.Status]++
	}
	fmt.Fprintf(out,
		"バッチ書き出しサマリ: total=%d succeeded=%d failed=%d skipped_missing=%d dry_run=%d\n",
		len(results),
		counts[statusSucceeded],
		counts[statusFailed],
		counts[statusSkippedMissing],
		counts[statusDryRun],
	)
}

// resolveJobName はジョブ名を返す。未指定の場合はスケルトンのファイル名を使う。
func resolveJobName(job exportJob) string {
	if name := strings.TrimSpace(job.Name); name != "" {
		return name
	}
	base := strings.TrimSpace(filepath.Base(job.Skeleton))
	name := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	if name == "" || name == "." {
		return "job"
	}
	return name
}

// resolveJobPath は相対パスを基準ディレクトリから解決し、Windowsパスを正規化する。
func resolveJobPath(baseDir string, path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	converted := convertWindowsPathToWsl(trimmed)
	if !filepath.IsAbs(converted) {
		converted = filepath.Join(baseDir, converted)
	}
	return filepath.Clean(converted)
}

// convertWindowsPathToWsl は Linux 実行時に Windows パスを WSL パスへ変換する。
func convertWindowsPathToWsl(path string) string {
	trimmed := strings.TrimSpace(path)
	if runtime.GOOS != "linux" {
		return trimmed
	}
	if len(trimmed) < 2 || trimmed[1] != ':' {
		return trimmed
	}
	drive := strings.ToLower(trimmed[:1])
	rest := strings.ReplaceAll(trimmed[2:], "\\", "/")
	if rest == "" {
		return filepath.ToSlash(filepath.Join("/mnt", drive))
	}
	if !strings.HasPrefix(rest, "/") {
		rest = "/" + rest
	}
	return filepath.ToSlash(filepath.Join("/mnt", drive) + rest)
}

// sanitizePathComponent は出力ディレクトリ/ファイル名に使えない文字を置換する。
func sanitizePathComponent(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "job"
	}
	replaced := strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', ':', '"', '/', '\\', '|', '?', '*':
			return '_'
		default:
			if r < 0x20 {
				return '_'
			}
			return r
		}
	}, trimmed)
	replaced = strings.Trim(replaced, " .")
	if replaced == "" {
		return "job"
	}
	return replaced
}

// newExportProgressCollector は ExportAnimation 進捗収集器を生成する。
func newExportProgressCollector() *exportProgressCollector {
	return &exportProgressCollector{
		eventCounts: map[minteractor.ExportProgressEventType]int{},
	}
}

// ReportExportProgress は ExportAnimation の進捗イベントを収集する。
func (collector *exportProgressCollector) ReportExportProgress(event minteractor.ExportProgressEvent) {
	if collector == nil {
		return
	}
	if collector.eventCounts == nil {
		collector.eventCounts = map[minteractor.ExportProgressEventType]int{}
	}
	collector.eventCounts[event.Type]++
	if event.LinkCount > collector.linkMax {
		collector.linkMax = event.LinkCount
	}
	if event.FrameCount > collector.frameMax {
		collector.frameMax = event.FrameCount
	}
	if event.NodeCount > collector.nodeMax {
		collector.nodeMax = event.NodeCount
	}
}

// Summary は収集した進捗の要約文字列を返す。
func (collector *exportProgressCollector) Summary() string {
	if collector == nil || len(collector.eventCounts) == 0 {
		return ""
	}
	types := make([]string, 0, len(collector.eventCounts))
	for stageType := range collector.eventCounts {
		types = append(types, string(stageType))
	}
	sort.Strings(types)
	return fmt.Sprintf(
		"events=%d links=%d frames=%d nodesMax=%d stages=%s",
		len(collector.eventCounts),
		collector.linkMax,
		collector.frameMax,
		collector.nodeMax,
		strings.Join(types, ","),
	)
}
