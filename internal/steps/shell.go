package steps

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/shaiso/Conveyor/internal/domain"
)

// ShellStep выполняет shell-команду на агенте.
//
// Конфигурация:
//
//	{"command": "make test"}        // обязательно
//	{"dir": "service"}              // относительно WorkDir, опционально
//
// Outputs:
//
//	{"exit_code": 0}
//
// Команда получает окружение из области стадии; вывод (stdout и
// stderr вместе) возвращается с замаскированными секретами.
type ShellStep struct{}

// NewShellStep создаёт исполнителя shell-шагов.
func NewShellStep() *ShellStep {
	return &ShellStep{}
}

// Kind реализует Step.
func (s *ShellStep) Kind() string { return domain.KindShell }

// Execute реализует Step.
func (s *ShellStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	command := ConfigString(req.Step.Config, "command")
	if command == "" {
		return nil, fmt.Errorf("%w: shell step requires command", ErrInvalidConfig)
	}

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = req.WorkDir
	if sub := ConfigString(req.Step.Config, "dir"); sub != "" {
		cmd.Dir = cmd.Dir + "/" + sub
	}
	cmd.Env = environ(req)

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	runErr := cmd.Run()

	output := buf.String()
	if req.Env != nil {
		output = req.Env.Redact(output)
	}

	exitCode := 0
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return nil, fmt.Errorf("%w: %v", ErrCommandFailed, runErr)
		}
	}

	resp := NewResponse(map[string]any{"exit_code": exitCode})
	resp.Output = output

	if exitCode != 0 {
		// Контекст мог истечь во время выполнения: отдаём его ошибку,
		// чтобы движок отличил таймаут и отмену от обычного неуспеха.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return resp, ctxErr
		}
		return resp, fmt.Errorf("%w: exit code %d", ErrCommandFailed, exitCode)
	}
	return resp, nil
}

// environ собирает окружение команды из области стадии.
func environ(req *Request) []string {
	if req.Env == nil {
		return nil
	}
	visible := req.Env.Visible()
	env := make([]string, 0, len(visible))
	for name, value := range visible {
		env = append(env, name+"="+value)
	}
	// PATH нужен для запуска утилит даже при чистом окружении
	if _, ok := visible["PATH"]; !ok {
		env = append(env, "PATH=/usr/local/bin:/usr/bin:/bin")
	}
	return env
}
