package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"text/template"
)

// varTagPattern шукає теги {{var "name" default_value required}}
var varTagPattern = regexp.MustCompile(`\{\{var\s+"([^"]+)"\s+((?:"[^"]*")|[^\s}]+)\s+(true|false)\s*\}\}`)

// generateConfigWithVars генерує конфігурацію з шаблону з використанням змінних
func generateConfigWithVars(templatePath, outputPath string, vars map[string]interface{}) error {
	content, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}

	rendered, err := renderTemplate(string(content), vars)
	if err != nil {
		return err
	}

	// Перевіряємо що результат розбирається як HCL з тими ж функціями, що й при старті
	if _, err := decodeUnvalidated("generated.hcl", rendered); err != nil {
		return fmt.Errorf("generated config is not valid HCL: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// Конфігурація містить секрети, тому файл доступний лише власнику
	if err := os.WriteFile(outputPath, rendered, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// renderTemplate підставляє {{var}} теги і виконує text/template
func renderTemplate(content string, vars map[string]interface{}) ([]byte, error) {
	processed, err := processVarTags(content, vars)
	if err != nil {
		return nil, err
	}

	tmpl, err := template.New("config").Option("missingkey=error").Parse(processed)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return nil, fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.Bytes(), nil
}

// processVarTags обробляє {{var "name" default_value required}} теги.
// Обов'язкова змінна без значення і без дефолту є помилкою.
func processVarTags(content string, vars map[string]interface{}) (string, error) {
	var missing []string

	result := varTagPattern.ReplaceAllStringFunc(content, func(match string) string {
		matches := varTagPattern.FindStringSubmatch(match)
		if len(matches) != 4 {
			return match
		}

		varName := matches[1]
		defaultValue := matches[2]
		required := matches[3] == "true"

		if value, exists := vars[varName]; exists && value != "" {
			return formatValue(value)
		}

		if required && (defaultValue == "" || defaultValue == `""`) {
			missing = append(missing, varName)
			return match
		}

		return formatValue(parseDefaultValue(defaultValue))
	})

	if len(missing) > 0 {
		sort.Strings(missing)
		return "", fmt.Errorf("required template variables are not set: %s", strings.Join(missing, ", "))
	}

	return result, nil
}

// formatValue форматує значення для HCL
func formatValue(value interface{}) string {
	switch v := value.(type) {
	case []string:
		quoted := make([]string, 0, len(v))
		for _, item := range v {
			quoted = append(quoted, strconv.Quote(strings.TrimSpace(item)))
		}
		return "[" + strings.Join(quoted, ", ") + "]"
	case string:
		// Виклик env("NAME") лишається виразом HCL
		if strings.HasPrefix(v, "env(") && strings.HasSuffix(v, ")") {
			return v
		}
		return strconv.Quote(v)
	case int, int32, int64:
		return fmt.Sprintf("%d", v)
	case float32, float64:
		return strconv.FormatFloat(toFloat(v), 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return strconv.Quote(fmt.Sprintf("%v", v))
	}
}

func toFloat(v interface{}) float64 {
	switch f := v.(type) {
	case float32:
		return float64(f)
	case float64:
		return f
	}
	return 0
}

// parseDefaultValue парсить дефолтне значення з template
func parseDefaultValue(defaultValue string) interface{} {
	if strings.HasPrefix(defaultValue, `"`) && strings.HasSuffix(defaultValue, `"`) {
		return strings.Trim(defaultValue, `"`)
	}

	if intVal, err := strconv.Atoi(defaultValue); err == nil {
		return intVal
	}

	if floatVal, err := strconv.ParseFloat(defaultValue, 64); err == nil {
		return floatVal
	}

	if boolVal, err := strconv.ParseBool(defaultValue); err == nil {
		return boolVal
	}

	return defaultValue
}
