package task

import (
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"sigs.k8s.io/yaml"
)

// Load decodes a task list written as JSON or YAML and validates it.
func Load(r io.Reader) ([]Task, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var tasks []Task
	if err := yaml.UnmarshalStrict(data, &tasks); err != nil {
		return nil, fmt.Errorf("decoding task list: %w", err)
	}

	if err := Validate(tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Validate checks every task in the list, including nested subshell lists,
// for unknown kinds and gates.
func Validate(tasks []Task) error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		return name
	})

	for i := range tasks {
		if err := validate.Struct(&tasks[i]); err != nil {
			return fmt.Errorf("task %d: %w", i, err)
		}
	}
	return nil
}
