package guard

import "github.com/mathschool/sync-core/internal/models"

// Guard is the permission authority consulted before every state-changing
// workflow operation. A false or nil answer is a hard Forbidden, never a
// silent no-op.
type Guard interface {
	HasCapability(name string) bool
	CurrentActor() *models.Actor
}

// StaticGuard wraps a fixed actor. Used by tests and by hosts that resolve
// the actor elsewhere.
type StaticGuard struct {
	Actor *models.Actor
}

// HasCapability reports whether the fixed actor carries the capability.
func (g *StaticGuard) HasCapability(name string) bool {
	if g == nil {
		return false
	}
	return g.Actor.Can(name)
}

// CurrentActor returns the fixed actor.
func (g *StaticGuard) CurrentActor() *models.Actor {
	if g == nil {
		return nil
	}
	return g.Actor
}

// RoleCapabilities maps application roles onto capability sets, mirroring the
// role service the admin screens are gated by.
func RoleCapabilities(role string) []string {
	switch role {
	case "admin":
		return []string{
			models.CapStudentsManage,
			models.CapStudentsRegister,
			models.CapMaterialsManage,
			models.CapMaterialsRead,
		}
	case "registrar":
		return []string{
			models.CapStudentsManage,
			models.CapStudentsRegister,
			models.CapMaterialsRead,
		}
	case "teacher":
		return []string{
			models.CapMaterialsManage,
			models.CapMaterialsRead,
		}
	default:
		return nil
	}
}
