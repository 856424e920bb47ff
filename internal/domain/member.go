package domain

// Role is the position of a connection in the admission state machine.
type Role int

const (
	RoleAnonymous Role = iota
	RolePending
	RoleMember
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RolePending:
		return "pending"
	case RoleMember:
		return "member"
	case RoleAdmin:
		return "admin"
	default:
		return "anonymous"
	}
}

// Member is the per-connection participation meta.
// No transport or lifecycle logic here.
type Member struct {
	Name string
	Role Role
}

func NewMember() *Member {
	return &Member{Name: DefaultSender}
}
