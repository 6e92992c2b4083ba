package usermgr

import "strings"

// Request is a capability probe handed to User.Authorize.
type Request interface {
	request()
}

// WriteRequest asks for permission to write File. An empty File means "/".
type WriteRequest struct {
	File string
}

// TransferRateRequest is filled with the granted rates (bytes/sec, 0 = unlimited).
type TransferRateRequest struct {
	MaxUploadRate   int
	MaxDownloadRate int
}

// ConcurrentLoginRequest carries the current login counts and is filled with
// the granted caps (0 = unlimited).
type ConcurrentLoginRequest struct {
	ConcurrentLogins       int
	ConcurrentLoginsFromIP int

	MaxConcurrentLogins      int
	MaxConcurrentLoginsPerIP int
}

func (WriteRequest) request()           {}
func (TransferRateRequest) request()    {}
func (ConcurrentLoginRequest) request() {}

// Authority grants or denies the requests it can handle.
type Authority interface {
	CanAuthorize(req Request) bool
	Authorize(req Request) (Request, bool)
}

// WritePermission allows writes below Root ("" or "/" allow everything).
type WritePermission struct {
	Root string
}

func (p WritePermission) CanAuthorize(req Request) bool {
	_, ok := req.(WriteRequest)
	return ok
}

func (p WritePermission) Authorize(req Request) (Request, bool) {
	wr, ok := req.(WriteRequest)
	if !ok {
		return nil, false
	}
	root := p.Root
	if root == "" {
		root = "/"
	}
	file := wr.File
	if file == "" {
		file = "/"
	}
	if !strings.HasPrefix(file, root) {
		return nil, false
	}
	return wr, true
}

type TransferRatePermission struct {
	MaxUploadRate   int
	MaxDownloadRate int
}

func (p TransferRatePermission) CanAuthorize(req Request) bool {
	_, ok := req.(TransferRateRequest)
	return ok
}

func (p TransferRatePermission) Authorize(req Request) (Request, bool) {
	tr, ok := req.(TransferRateRequest)
	if !ok {
		return nil, false
	}
	tr.MaxUploadRate = p.MaxUploadRate
	tr.MaxDownloadRate = p.MaxDownloadRate
	return tr, true
}

type ConcurrentLoginPermission struct {
	MaxConcurrentLogins      int
	MaxConcurrentLoginsPerIP int
}

func (p ConcurrentLoginPermission) CanAuthorize(req Request) bool {
	_, ok := req.(ConcurrentLoginRequest)
	return ok
}

func (p ConcurrentLoginPermission) Authorize(req Request) (Request, bool) {
	cr, ok := req.(ConcurrentLoginRequest)
	if !ok {
		return nil, false
	}
	if p.MaxConcurrentLogins != 0 && p.MaxConcurrentLogins < cr.ConcurrentLogins {
		return nil, false
	}
	if p.MaxConcurrentLoginsPerIP != 0 && p.MaxConcurrentLoginsPerIP < cr.ConcurrentLoginsFromIP {
		return nil, false
	}
	cr.MaxConcurrentLogins = p.MaxConcurrentLogins
	cr.MaxConcurrentLoginsPerIP = p.MaxConcurrentLoginsPerIP
	return cr, true
}
