package models

// Capability names consulted before workflow mutations.
const (
	CapStudentsManage   = "students.manage"
	CapStudentsRegister = "students.register"
	CapMaterialsManage  = "materials.manage"
	CapMaterialsRead    = "materials.read"
)

// Actor identifies the current user as seen by the permission guard.
type Actor struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Role         string   `json:"role"`
	Capabilities []string `json:"capabilities"`
}

// Can reports whether the actor carries the named capability.
func (a *Actor) Can(capability string) bool {
	if a == nil {
		return false
	}
	for _, c := range a.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}
