// Package directory reads users and nested group memberships from LDAP.
package directory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

var (
	// ErrGroupNotFound indicates the named group does not exist in the directory.
	ErrGroupNotFound = errors.New("directory: group not found")
	// ErrUserNotFound indicates the username does not resolve to a person entry.
	ErrUserNotFound = errors.New("directory: user not found")
	// ErrInvalidCredentials indicates a failed user bind.
	ErrInvalidCredentials = errors.New("directory: invalid credentials")
)

// Config holds the LDAP connection and search settings.
type Config struct {
	URL          string
	BindDN       string
	BindPassword string
	UserBaseDN   string
	GroupBaseDN  string
	// UserFilter is a filter template with a single %s for the escaped username.
	UserFilter string
}

// Entry is a person record read from the directory.
type Entry struct {
	DN         string
	Username   string
	FirstName  string
	LastName   string
	Email      string
	Department string
	MemberOf   []string
}

// Conn is the subset of an LDAP connection the client uses.
type Conn interface {
	Bind(username, password string) error
	Search(request *ldap.SearchRequest) (*ldap.SearchResult, error)
	Close() error
}

// Dialer opens a connection to url.
type Dialer func(url string) (Conn, error)

// Client performs directory lookups, opening one bound connection per call.
type Client struct {
	config Config
	dial   Dialer
}

var userAttributes = []string{"dn", "cn", "givenName", "sn", "mail", "department", "memberOf"}

// NewClient constructs a client that dials with go-ldap.
func NewClient(config Config) *Client {
	return NewClientWithDialer(config, func(url string) (Conn, error) {
		return ldap.DialURL(url)
	})
}

// NewClientWithDialer constructs a client using a custom dialer.
func NewClientWithDialer(config Config, dial Dialer) *Client {
	if config.UserFilter == "" {
		config.UserFilter = "(&(objectClass=person)(cn=%s))"
	}
	return &Client{config: config, dial: dial}
}

func (c *Client) connect() (Conn, error) {
	conn, err := c.dial(c.config.URL)
	if err != nil {
		return nil, fmt.Errorf("directory: dial: %w", err)
	}
	if c.config.BindDN != "" {
		if err := conn.Bind(c.config.BindDN, c.config.BindPassword); err != nil {
			conn.Close()
			return nil, fmt.Errorf("directory: service bind: %w", err)
		}
	}
	return conn, nil
}

// GroupMembers returns the usernames of every person that is a member of the
// group or of any group nested inside it.
func (c *Client) GroupMembers(ctx context.Context, group string) ([]string, error) {
	conn, err := c.connect()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	root, err := conn.Search(ldap.NewSearchRequest(
		c.config.GroupBaseDN, ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 1, 0, false,
		fmt.Sprintf("(&(objectClass=group)(cn=%s))", ldap.EscapeFilter(group)),
		[]string{"dn"}, nil,
	))
	if err != nil && !ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) {
		return nil, fmt.Errorf("directory: group search: %w", err)
	}
	if root == nil || len(root.Entries) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, group)
	}

	all := map[string]bool{root.Entries[0].DN: true}
	frontier := []string{root.Entries[0].DN}
	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		nested, err := conn.Search(ldap.NewSearchRequest(
			c.config.GroupBaseDN, ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
			fmt.Sprintf("(&(objectClass=group)%s)", memberOfAny(frontier)),
			[]string{"dn"}, nil,
		))
		if err != nil {
			return nil, fmt.Errorf("directory: nested group search: %w", err)
		}

		frontier = frontier[:0]
		for _, entry := range nested.Entries {
			if all[entry.DN] {
				continue
			}
			all[entry.DN] = true
			frontier = append(frontier, entry.DN)
		}
	}

	groupDNs := make([]string, 0, len(all))
	for dn := range all {
		groupDNs = append(groupDNs, dn)
	}
	sort.Strings(groupDNs)

	people, err := conn.Search(ldap.NewSearchRequest(
		c.config.UserBaseDN, ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
		fmt.Sprintf("(&(objectClass=person)%s)", memberOfAny(groupDNs)),
		[]string{"cn"}, nil,
	))
	if err != nil {
		return nil, fmt.Errorf("directory: member search: %w", err)
	}

	seen := map[string]bool{}
	usernames := make([]string, 0, len(people.Entries))
	for _, entry := range people.Entries {
		username := strings.TrimSpace(entry.GetAttributeValue("cn"))
		if username == "" || seen[username] {
			continue
		}
		seen[username] = true
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)
	return usernames, nil
}

// LookupUser reads the person entry of username.
func (c *Client) LookupUser(ctx context.Context, username string) (Entry, error) {
	conn, err := c.connect()
	if err != nil {
		return Entry{}, err
	}
	defer conn.Close()

	return c.lookup(conn, username)
}

func (c *Client) lookup(conn Conn, username string) (Entry, error) {
	result, err := conn.Search(ldap.NewSearchRequest(
		c.config.UserBaseDN, ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 2, 0, false,
		fmt.Sprintf(c.config.UserFilter, ldap.EscapeFilter(username)),
		userAttributes, nil,
	))
	if err != nil && !ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) {
		return Entry{}, fmt.Errorf("directory: user search: %w", err)
	}
	if result == nil || len(result.Entries) != 1 {
		return Entry{}, ErrUserNotFound
	}

	raw := result.Entries[0]
	return Entry{
		DN:         raw.DN,
		Username:   raw.GetAttributeValue("cn"),
		FirstName:  raw.GetAttributeValue("givenName"),
		LastName:   raw.GetAttributeValue("sn"),
		Email:      raw.GetAttributeValue("mail"),
		Department: raw.GetAttributeValue("department"),
		MemberOf:   raw.GetAttributeValues("memberOf"),
	}, nil
}

// Authenticate verifies a password by binding as the user's entry.
func (c *Client) Authenticate(ctx context.Context, username, password string) error {
	if password == "" {
		return ErrInvalidCredentials
	}

	conn, err := c.connect()
	if err != nil {
		return err
	}
	defer conn.Close()

	entry, err := c.lookup(conn, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrInvalidCredentials
		}
		return err
	}

	if err := conn.Bind(entry.DN, password); err != nil {
		if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("directory: user bind: %w", err)
	}
	return nil
}

func memberOfAny(dns []string) string {
	var b strings.Builder
	b.WriteString("(|")
	for _, dn := range dns {
		b.WriteString("(memberOf=")
		b.WriteString(ldap.EscapeFilter(dn))
		b.WriteString(")")
	}
	b.WriteString(")")
	return b.String()
}
