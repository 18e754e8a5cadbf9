package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/Conveyor/internal/agent"
	"github.com/shaiso/Conveyor/internal/approval"
	"github.com/shaiso/Conveyor/internal/artifact"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/engine"
	"github.com/shaiso/Conveyor/internal/load"
	"github.com/shaiso/Conveyor/internal/notify"
	"github.com/shaiso/Conveyor/internal/plan"
	"github.com/shaiso/Conveyor/internal/scm"
	"github.com/shaiso/Conveyor/internal/secret"
	"github.com/shaiso/Conveyor/internal/steps"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// NewValidateCmd создаёт команду validate: проверка pipeline-файла.
func NewValidateCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a pipeline YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			def, err := load.File(args[0])
			if err != nil {
				return err
			}

			compiled, err := plan.Compile(def, plan.Options{})
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("%s: OK (%d steps)", def.Name, compiled.StepCount()))
			return nil
		},
	}
}

// NewPlanCmd создаёт команду plan: печать скомпилированного дерева.
func NewPlanCmd(outputFn func() *Output) *cobra.Command {
	var params []string

	cmd := &cobra.Command{
		Use:   "plan FILE",
		Short: "Compile a pipeline file and print the execution tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			def, err := load.File(args[0])
			if err != nil {
				return err
			}

			paramMap, err := parseParams(params)
			if err != nil {
				return err
			}

			compiled, err := plan.Compile(def, plan.Options{Params: paramMap})
			if err != nil {
				return err
			}

			printNode(out, compiled.Root, 0)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&params, "param", nil, "Parameter values as KEY=VALUE (repeatable)")

	return cmd
}

// printNode печатает узел плана с отступом по глубине.
func printNode(out *Output, n *plan.Node, depth int) {
	indent := strings.Repeat("  ", depth)

	if depth == 0 {
		out.Line(n.Name)
	} else if n.IsLeaf() {
		out.Line(fmt.Sprintf("%s- %s [%s]%s", indent, n.Name, n.Step.Kind, nodeAttrs(n)))
	} else {
		mode := ""
		if n.Mode == domain.ModeParallel {
			mode = " (parallel)"
		}
		out.Line(fmt.Sprintf("%s%s%s%s", indent, n.Name, mode, nodeAttrs(n)))
	}

	for _, child := range n.Children {
		printNode(out, child, depth+1)
	}
}

// nodeAttrs форматирует атрибуты узла для вывода.
func nodeAttrs(n *plan.Node) string {
	var attrs []string
	if n.Agent != "" {
		attrs = append(attrs, "agent="+n.Agent)
	}
	if n.Retry > 0 {
		attrs = append(attrs, fmt.Sprintf("retry=%d", n.Retry))
	}
	if n.Timeout > 0 {
		attrs = append(attrs, "timeout="+n.Timeout.String())
	}
	if len(attrs) == 0 {
		return ""
	}
	return " {" + strings.Join(attrs, ", ") + "}"
}

// NewExecCmd создаёт команду exec: выполнение pipeline в процессе CLI.
func NewExecCmd(outputFn func() *Output) *cobra.Command {
	var params []string
	var workDir string
	var artifactDir string
	var secretPrefix string
	var concurrency int
	var verbose bool

	cmd := &cobra.Command{
		Use:   "exec FILE",
		Short: "Execute a pipeline file locally, without a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			def, err := load.File(args[0])
			if err != nil {
				return err
			}

			paramMap, err := parseParams(params)
			if err != nil {
				return err
			}

			compiled, err := plan.Compile(def, plan.Options{Params: paramMap})
			if err != nil {
				return err
			}

			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			if workDir == "" {
				workDir, err = os.MkdirTemp("", "conveyor-exec-")
				if err != nil {
					return fmt.Errorf("create work dir: %w", err)
				}
				defer os.RemoveAll(workDir)
			}
			if artifactDir == "" {
				artifactDir = filepath.Join(workDir, "artifacts")
			}

			broker := approval.NewBroker()
			deps := steps.Deps{
				Sink:      notify.NewSlogSink(logger),
				Artifacts: artifact.NewLocalStore(artifactDir),
				Approvals: broker,
				SCM:       scm.GitProvider{},
			}

			eng := engine.New(engine.Config{
				Steps:   steps.DefaultRegistry(deps),
				Agents:  agent.NewLocalPool(agent.Config{Labels: planLabels(compiled, concurrency)}),
				Secrets: &secret.EnvResolver{Prefix: secretPrefix},
				Metrics: telemetry.NopMetrics(),
				Logger:  logger,
				WorkDir: workDir,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			// Интерактивные подтверждения из терминала
			go promptApprovals(ctx, broker, out)

			runID := uuid.New()
			out.Success(fmt.Sprintf("Executing %s (run %s)", def.Name, runID))

			result, err := eng.Run(ctx, compiled, engine.RunOptions{
				RunID:  runID,
				Params: paramMap,
			})
			if err != nil {
				return err
			}

			printResult(out, result)

			if result.Status != domain.StatusSuccess {
				return fmt.Errorf("pipeline finished with status %s", result.Status)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&params, "param", nil, "Parameter values as KEY=VALUE (repeatable)")
	cmd.Flags().StringVar(&workDir, "workdir", "", "Working directory (temporary if not set)")
	cmd.Flags().StringVar(&artifactDir, "artifacts", "", "Artifact store directory")
	cmd.Flags().StringVar(&secretPrefix, "secret-prefix", "CONVEYOR_SECRET_", "Env prefix for secret resolution")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Slots per agent label")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose engine logging")

	return cmd
}

// planLabels собирает метки агентов из плана.
// Каждая метка получает slots слотов; безымянный агент — метка "local".
func planLabels(p *plan.Plan, slots int) map[string]int {
	labels := map[string]int{"local": slots}
	p.Root.Walk(func(n *plan.Node) bool {
		if n.Agent != "" {
			labels[n.Agent] = slots
		}
		return true
	})
	return labels
}

// promptApprovals опрашивает broker и спрашивает решение в терминале.
func promptApprovals(ctx context.Context, broker *approval.Broker, out *Output) {
	user := os.Getenv("USER")
	if user == "" {
		user = "local"
	}

	reader := bufio.NewReader(os.Stdin)
	seen := make(map[string]bool)

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		for _, req := range broker.Pending() {
			if seen[req.ID] {
				continue
			}
			seen[req.ID] = true

			msg := req.Message
			if msg == "" {
				msg = req.StagePath
			}
			fmt.Fprintf(os.Stderr, "Approve %q? [y/N]: ", msg)

			line, err := reader.ReadString('\n')
			approved := err == nil && strings.EqualFold(strings.TrimSpace(line), "y")

			if err := broker.Resolve(req.ID, approval.Decision{
				Approved: approved,
				By:       user,
			}); err != nil {
				out.Error(fmt.Sprintf("resolve approval %s: %v", req.ID, err))
			}
		}
	}
}

// printResult печатает статусы узлов по завершении.
func printResult(out *Output, result *domain.RunResult) {
	out.Success(fmt.Sprintf("Finished: %s (%s)", result.Status, result.Duration().Round(time.Millisecond)))

	for _, path := range sortedPaths(result.Nodes) {
		n := result.Nodes[path]
		line := fmt.Sprintf("%-10s %s", n.Status, path)
		if n.Reason != "" {
			line += "  (" + n.Reason + ")"
		}
		out.Line(line)
	}
}

// sortedPaths возвращает пути узлов в стабильном порядке.
func sortedPaths(nodes map[string]*domain.NodeResult) []string {
	paths := make([]string, 0, len(nodes))
	for path := range nodes {
		paths = append(paths, path)
	}
	// Сортировка по глубине, затем лексикографически: родитель раньше детей
	for i := 1; i < len(paths); i++ {
		for j := i; j > 0 && pathLess(paths[j], paths[j-1]); j-- {
			paths[j], paths[j-1] = paths[j-1], paths[j]
		}
	}
	return paths
}

func pathLess(a, b string) bool {
	da, db := strings.Count(a, "/"), strings.Count(b, "/")
	if da != db && (strings.HasPrefix(b, a+"/") || strings.HasPrefix(a, b+"/")) {
		return da < db
	}
	return a < b
}

// parseParams разбирает KEY=VALUE пары.
func parseParams(params []string) (map[string]string, error) {
	if len(params) == 0 {
		return nil, nil
	}
	m := make(map[string]string, len(params))
	for _, kv := range params {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid parameter format %q, expected KEY=VALUE", kv)
		}
		m[parts[0]] = parts[1]
	}
	return m, nil
}
