// 指示: miu200521358
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/message"

	"github.com/miu200521358/mu_rig_retarget/pkg/adapter/io_model/gltf"
	"github.com/miu200521358/mu_rig_retarget/pkg/adapter/mpresenter/messages"
	"github.com/miu200521358/mu_rig_retarget/pkg/adapter/optimizer"
	"github.com/miu200521358/mu_rig_retarget/pkg/domain/mmath"
	"github.com/miu200521358/mu_rig_retarget/pkg/shared/config"
	"github.com/miu200521358/mu_rig_retarget/pkg/shared/logging"
	"github.com/miu200521358/mu_rig_retarget/pkg/shared/merrors"
	"github.com/miu200521358/mu_rig_retarget/pkg/usecase/minteractor"
)

const (
	appName          = "mu_rig_retarget"
	outputDirMode    = 0o755
	defaultLanguage  = "ja"
	flagConfig       = "config"
	flagLang         = "lang"
	flagLogLevel     = "log-level"
	flagScene        = "scene"
	flagRoot         = "root"
	flagSkeleton     = "skeleton"
	flagOut          = "out"
	flagLevel        = "level"
	flagStart        = "start"
	flagEnd          = "end"
	flagFps          = "fps"
	flagAnimation    = "animation-name"
	flagCompress     = "compress-container"
	flagIn           = "in"
	flagArmature     = "armature"
	flagAxis         = "axis"
	flagAngle        = "angle"
)

// cliState はサブコマンド間で共有する実行状態を保持する。
type cliState struct {
	out     io.Writer
	errOut  io.Writer
	config  config.Config
	printer *message.Printer
}

// main はリターゲットCLIを実行する。
func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run はCLI処理全体を実行する。
func run(args []string, out io.Writer, errOut io.Writer) error {
	root := newRootCommand(out, errOut)
	root.SetArgs(args)
	return root.Execute()
}

// newRootCommand はサブコマンドを束ねたルートコマンドを生成する。
func newRootCommand(out io.Writer, errOut io.Writer) *cobra.Command {
	state := &cliState{
		out:     out,
		errOut:  errOut,
		config:  config.Default(),
		printer: messages.NewPrinter(defaultLanguage),
	}
	root := &cobra.Command{
		Use:           appName,
		Short:         state.printer.Sprintf(messages.HelpUsage),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.String(flagConfig, "", "設定ファイル(YAML)")
	flags.String(flagLang, defaultLanguage, "表示言語 (ja|en)")
	flags.String(flagLogLevel, "", "ログレベル (debug|info|warn|error)")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return state.init(cmd)
	}

	root.AddCommand(newExportCommand(state), newRotateCommand(state))
	return root
}

// init は設定ファイル、表示言語、ロガーを準備する。
func (s *cliState) init(cmd *cobra.Command) error {
	flags := cmd.Flags()
	lang, _ := flags.GetString(flagLang)
	s.printer = messages.NewPrinter(lang)

	configPath, _ := flags.GetString(flagConfig)
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if flags.Changed(flagLogLevel) {
		cfg.Log.Level, _ = flags.GetString(flagLogLevel)
	}
	logger, err := logging.NewLogger(cfg.Log.Level)
	if err != nil {
		return merrors.NewInvalidRange("ログレベルが不正です: %s", err, cfg.Log.Level)
	}
	logging.SetDefaultLogger(logger)
	s.config = cfg
	return nil
}

// newUsecase はglTF入出力と最適化を組み込んだユースケースを生成する。
func (s *cliState) newUsecase() *minteractor.RetargetUsecase {
	repository := gltf.NewGltfRepository()
	curveOptimizer := optimizer.NewCurveOptimizer()
	curveOptimizer.CompressContainer = s.config.Export.CompressContainer
	return minteractor.NewRetargetUsecase(minteractor.RetargetUsecaseDeps{
		AssetReader: repository,
		AssetWriter: repository,
		Optimizer:   curveOptimizer,
	})
}

// newExportCommand はアニメーション書き出しコマンドを生成する。
func newExportCommand(state *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: state.printer.Sprintf(messages.HelpExport),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return state.runExport(cmd)
		},
	}
	flags := cmd.Flags()
	flags.String(flagScene, "", "ドライバー階層を含むシーン(glb/gltf)")
	flags.String(flagRoot, "", "ドライバールートのオブジェクト名")
	flags.String(flagSkeleton, "", "ドリブン側スケルトン(glb/gltf)")
	flags.String(flagOut, "", "アニメーション出力先(glb/gltf)")
	flags.Int(flagLevel, 0, "圧縮レベル (0-4)")
	flags.Int(flagStart, 0, "開始フレーム")
	flags.Int(flagEnd, 0, "終了フレーム")
	flags.Float64(flagFps, config.DefaultFps, "フレームレート")
	flags.String(flagAnimation, config.DefaultAnimationName, "出力アニメーション名")
	flags.Bool(flagCompress, false, "出力をzlibコンテナで包む")
	return cmd
}

// runExport はシーンを読み込み、アニメーション書き出しを実行する。
func (s *cliState) runExport(cmd *cobra.Command) error {
	flags := cmd.Flags()
	exportConfig := s.config.Export
	if flags.Changed(flagLevel) {
		exportConfig.CompressionLevel, _ = flags.GetInt(flagLevel)
	}
	if flags.Changed(flagStart) {
		start, _ := flags.GetInt(flagStart)
		exportConfig.FrameStart = &start
	}
	if flags.Changed(flagEnd) {
		end, _ := flags.GetInt(flagEnd)
		exportConfig.FrameEnd = &end
	}
	if flags.Changed(flagFps) {
		exportConfig.Fps, _ = flags.GetFloat64(flagFps)
	}
	if flags.Changed(flagAnimation) {
		exportConfig.AnimationName, _ = flags.GetString(flagAnimation)
	}
	if flags.Changed(flagCompress) {
		exportConfig.CompressContainer, _ = flags.GetBool(flagCompress)
	}
	s.config.Export = exportConfig
	if err := s.config.Validate(); err != nil {
		return err
	}

	scenePath, _ := flags.GetString(flagScene)
	rootName, _ := flags.GetString(flagRoot)
	skeletonPath, _ := flags.GetString(flagSkeleton)
	outputPath, _ := flags.GetString(flagOut)
	if strings.TrimSpace(scenePath) == "" {
		return merrors.NewMissingInput("%s", nil, s.printer.Sprintf(messages.MessageSceneRequired))
	}
	if strings.TrimSpace(rootName) == "" {
		return merrors.NewMissingInput("%s", nil, s.printer.Sprintf(messages.MessageRootRequired))
	}
	resolvedOutput, err := minteractor.ResolveOutputPath(skeletonPath, outputPath)
	if err != nil {
		return err
	}

	usecase := s.newUsecase()
	scene, err := usecase.LoadScene(nil, scenePath)
	if err != nil {
		return fmt.Errorf("%s: %w", s.printer.Sprintf(messages.MessageLoadFailed), err)
	}
	driverRoot := scene.FindByName(rootName)
	if driverRoot < 0 {
		return merrors.NewMissingInput("%s", nil, s.printer.Sprintf(messages.MessageRootNotFound, rootName))
	}
	if err := ensureOutputDir(resolvedOutput); err != nil {
		return err
	}

	result, err := usecase.ExportAnimation(minteractor.ExportRequest{
		Scene:            scene,
		DriverRootIndex:  driverRoot,
		SkeletonPath:     skeletonPath,
		OutputPath:       resolvedOutput,
		CompressionLevel: exportConfig.CompressionLevel,
		FrameStart:       exportConfig.FrameStart,
		FrameEnd:         exportConfig.FrameEnd,
		Fps:              exportConfig.Fps,
		AnimationName:    exportConfig.AnimationName,
		ProgressReporter: &progressPrinter{out: s.errOut, printer: s.printer},
	})
	if err != nil {
		return fmt.Errorf("%s: %w", s.printer.Sprintf(messages.MessageExportFailed), err)
	}
	s.printer.Fprintf(s.out, messages.LogExportSuccess,
		result.OutputPath, result.LinkCount, result.BakedFrames, result.ExportedNodes)
	fmt.Fprintln(s.out)
	return nil
}

// newRotateCommand はレスト姿勢回転コマンドを生成する。
func newRotateCommand(state *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rotate",
		Short: state.printer.Sprintf(messages.HelpRotate),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return state.runRotate(cmd)
		},
	}
	flags := cmd.Flags()
	flags.String(flagIn, "", "回転対象のシーン(glb/gltf)")
	flags.String(flagArmature, "", "アーマチュア名。省略時は最初のアーマチュア")
	flags.String(flagAxis, config.DefaultRotateAxis, "回転軸 (X|Y|Z)")
	flags.String(flagAngle, config.DefaultRotateAngle, "回転角度。式も指定できる (例: -360/4)")
	flags.String(flagOut, "", "回転結果の出力先。省略時は入力名に日時を付ける")
	return cmd
}

// runRotate はシーンを読み込み、レスト姿勢を回転して保存する。
func (s *cliState) runRotate(cmd *cobra.Command) error {
	flags := cmd.Flags()
	rotateConfig := s.config.Rotate
	if flags.Changed(flagAxis) {
		rotateConfig.Axis, _ = flags.GetString(flagAxis)
	}
	if flags.Changed(flagAngle) {
		angle, _ := flags.GetString(flagAngle)
		rotateConfig.Angle = config.AngleExpression(angle)
	}
	axis, err := mmath.ParseAxis(rotateConfig.Axis)
	if err != nil {
		return merrors.NewInvalidRange("回転軸が不正です: %s", err, rotateConfig.Axis)
	}
	degrees, err := rotateConfig.Angle.Degrees()
	if err != nil {
		return err
	}

	inputPath, _ := flags.GetString(flagIn)
	if strings.TrimSpace(inputPath) == "" {
		return merrors.NewMissingInput("%s", nil, s.printer.Sprintf(messages.MessageSceneRequired))
	}
	outputPath, _ := flags.GetString(flagOut)
	resolvedOutput, err := minteractor.ResolveOutputPath(inputPath, outputPath)
	if err != nil {
		return err
	}

	usecase := s.newUsecase()
	scene, err := usecase.LoadScene(nil, inputPath)
	if err != nil {
		return fmt.Errorf("%s: %w", s.printer.Sprintf(messages.MessageLoadFailed), err)
	}
	armatureName, _ := flags.GetString(flagArmature)
	armatureIndex := -1
	if strings.TrimSpace(armatureName) == "" {
		armatureIndex = firstArmature(scene.PreOrder(), func(index int) bool {
			node, err := scene.Get(index)
			return err == nil && node.IsArmature()
		})
		if armatureIndex < 0 {
			return merrors.NewMissingInput("%s", nil, s.printer.Sprintf(messages.MessageArmatureNotFound, "-"))
		}
	}
	if err := ensureOutputDir(resolvedOutput); err != nil {
		return err
	}

	result, err := usecase.RotateRestPose(minteractor.RotateRequest{
		Scene:         scene,
		ArmatureIndex: armatureIndex,
		ArmatureName:  armatureName,
		Axis:          axis,
		Angle:         degrees,
		OutputPath:    resolvedOutput,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", s.printer.Sprintf(messages.MessageRotateFailed), err)
	}
	for _, warning := range merrors.Errors(result.Rotation.Warnings) {
		s.printer.Fprintf(s.errOut, messages.LogRotateWarning, warning)
		fmt.Fprintln(s.errOut)
	}
	s.printer.Fprintf(s.out, messages.LogRotateSuccess, result.Rotation.BoneCount, result.Rotation.RestoredCount)
	fmt.Fprintf(s.out, " %s\n", result.OutputPath)
	return nil
}

// firstArmature は条件を満たす最初のインデックスを返す。
func firstArmature(indexes []int, isArmature func(index int) bool) int {
	for _, index := range indexes {
		if isArmature(index) {
			return index
		}
	}
	return -1
}

// progressPrinter は書き出し進捗を標準エラーへ表示する。
type progressPrinter struct {
	out     io.Writer
	printer *message.Printer
}

// ReportExportProgress は進捗イベントを1行表示する。
func (p *progressPrinter) ReportExportProgress(event minteractor.ExportProgressEvent) {
	p.printer.Fprintf(p.out, messages.LogProgress, string(event.Type))
	fmt.Fprintln(p.out)
}

// ensureOutputDir は出力先ディレクトリを作成する。
func ensureOutputDir(outputPath string) error {
	dir := filepath.Dir(outputPath)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, outputDirMode); err != nil {
		return fmt.Errorf("出力先ディレクトリの作成に失敗しました: %w", err)
	}
	return nil
}
