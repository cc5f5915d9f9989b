package script

import "fmt"

// ApplyError indica que un comando resuelto se llamó con un número de argumentos
// que no acepta.
type ApplyError struct {
	Command *CommandBinding
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("wrong number of arguments for %s", e.Command.DisplayName)
}

// ScriptError es cualquier otro fallo de evaluación que el usuario puede ver.
type ScriptError struct {
	Message string
}

func (e *ScriptError) Error() string {
	return e.Message
}

func Errorf(format string, args ...any) error {
	return &ScriptError{Message: fmt.Sprintf(format, args...)}
}

// RecursionError se devuelve cuando la evaluación supera la profundidad máxima.
type RecursionError struct {
	Depth int
}

func (e *RecursionError) Error() string {
	return fmt.Sprintf("maximum recursion depth exceeded (%d)", e.Depth)
}
