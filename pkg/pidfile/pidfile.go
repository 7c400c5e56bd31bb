package pidfile

// pidfile.go - управление PID файлом
//
// Скрипты управления жизненным циклом (start/stop/health-poll соседних
// сервисов) находят процесс по PID файлу в tmp директории.

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultPath возвращает стандартный путь PID файла
func DefaultPath(name string) string {
	return filepath.Join(os.TempDir(), name+".pid")
}

// Write записывает PID текущего процесса в файл
func Write(path string) error {
	pid := strconv.Itoa(os.Getpid())
	if err := os.WriteFile(path, []byte(pid), 0o644); err != nil {
		return fmt.Errorf("failed to write pid file %s: %w", path, err)
	}
	return nil
}

// Read читает PID из файла
func Read(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid pid file %s: %w", path, err)
	}
	return pid, nil
}

// Remove удаляет PID файл
//
// Отсутствие файла не считается ошибкой (повторный shutdown).
func Remove(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
