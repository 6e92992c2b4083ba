package usermgr

import "strings"

// Attribute suffixes of a user record.
const (
	AttrPassword        = "userpassword"
	AttrHome            = "homedirectory"
	AttrEnable          = "enableflag"
	AttrWritePerm       = "writepermission"
	AttrMaxLoginNumber  = "maxloginnumber"
	AttrMaxLoginPerIP   = "maxloginperip"
	AttrMaxIdleTime     = "idletime"
	AttrMaxUploadRate   = "uploadrate"
	AttrMaxDownloadRate = "downloadrate"
	AttrGroups          = "groups"
)

// User is the typed view of one user record. The zero value is a disabled
// account; use NewUser for an enabled one.
type User struct {
	Name string
	// Password is the plaintext to store on Save. Nil keeps the stored
	// password (or an empty one for new users). Users returned by the
	// Manager never carry a password.
	Password      *string
	HomeDirectory string
	Enabled       bool
	// MaxIdleTime is the idle timeout in seconds; 0 means no limit.
	MaxIdleTime int
	Authorities []Authority
}

// NewUser returns an enabled user rooted at "/" with no authorities.
func NewUser(name string) *User {
	return &User{Name: name, HomeDirectory: "/", Enabled: true}
}

func (u *User) SetPassword(password string) {
	u.Password = &password
}

// Authorize asks every authority able to handle req. The request is denied
// when any of them refuses or when none can handle it; otherwise the grant
// accumulated by the authorities is returned.
func (u *User) Authorize(req Request) (Request, bool) {
	handled := false
	for _, a := range u.Authorities {
		if a == nil || !a.CanAuthorize(req) {
			continue
		}
		handled = true
		granted, ok := a.Authorize(req)
		if !ok {
			return nil, false
		}
		req = granted
	}
	if !handled {
		return nil, false
	}
	return req, true
}

// CanWrite reports whether writing to file is allowed.
func (u *User) CanWrite(file string) bool {
	_, ok := u.Authorize(WriteRequest{File: file})
	return ok
}

// TransferRate returns the first transfer-rate authority, or the zero
// (unlimited) permission when the user has none.
func (u *User) TransferRate() TransferRatePermission {
	for _, a := range u.Authorities {
		if p, ok := a.(TransferRatePermission); ok {
			return p
		}
	}
	return TransferRatePermission{}
}

// ConcurrentLogins returns the first concurrent-login authority, or the zero
// (unlimited) permission when the user has none.
func (u *User) ConcurrentLogins() ConcurrentLoginPermission {
	for _, a := range u.Authorities {
		if p, ok := a.(ConcurrentLoginPermission); ok {
			return p
		}
	}
	return ConcurrentLoginPermission{}
}

// Authentication is a login attempt. UsernamePassword and Anonymous are the
// kinds understood by the Manager.
type Authentication interface {
	Method() string
}

type UsernamePassword struct {
	Username string
	Password string
}

func (UsernamePassword) Method() string { return "password" }

type Anonymous struct{}

func (Anonymous) Method() string { return "anonymous" }

// AnonymousName is the user an Anonymous authentication resolves to.
const AnonymousName = "anonymous"

func userKeyPrefix(prefix, name string) string {
	var b strings.Builder
	b.Grow(len(prefix) + len(name) + 1)
	b.WriteString(prefix)
	b.WriteString(name)
	b.WriteByte('.')
	return b.String()
}
