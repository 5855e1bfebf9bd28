package mapmodel

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"evalgo.org/fleetmap/internal/fleeterr"
)

var validate = validator.New()

// Validate runs struct-tag validation over every declared container
// assignment (exposed port ranges, exec command policy enum, stop
// timeout) before CheckIntegrity runs its structural checks, the way
// graphium's internal/validation/validator.go validates a parsed
// document before it is accepted.
func (m *ContainerMap) Validate() error {
	for _, name := range m.Names() {
		a := m.Containers[name]
		if err := validate.Struct(a); err != nil {
			return fleeterr.NewIntegrityError(fmt.Sprintf("container %q: %v", name, err))
		}
	}
	return nil
}
