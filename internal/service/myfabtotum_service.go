package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Stewz00/myfabtotum-link/internal/i18n"
	"github.com/Stewz00/myfabtotum-link/internal/interfaces"
	"github.com/Stewz00/myfabtotum-link/internal/logging"
	"github.com/Stewz00/myfabtotum-link/internal/model"
	"github.com/Stewz00/myfabtotum-link/internal/myfabtotum"
	"github.com/Stewz00/myfabtotum-link/internal/repository"
	"github.com/Stewz00/myfabtotum-link/internal/session"
)

var (
	ErrConnectivityUnavailable = errors.New("no internet connection")
	ErrUserNotFound            = errors.New("user not found")
	ErrRemoteProviderFailure   = errors.New("my.fabtotum.com provider failure")
)

// Outcome is the result of one remote call. OK is set when the provider
// answered with a reply object; Message is set instead when the call was not
// attempted.
type Outcome struct {
	OK      bool
	Reply   myfabtotum.Reply
	Message string
}

// Succeeded reports whether the provider answered with status true.
func (o Outcome) Succeeded() bool {
	return o.OK && o.Reply.Status()
}

// MarshalJSON renders the shape the connect dialog expects: the reply object,
// {"message": ...} when the call was skipped, or false.
func (o Outcome) MarshalJSON() ([]byte, error) {
	switch {
	case o.Message != "":
		return json.Marshal(map[string]string{"message": o.Message})
	case o.OK && o.Reply != nil:
		return json.Marshal(o.Reply)
	default:
		return []byte("false"), nil
	}
}

// ConnectRequest carries the connect form submission.
type ConnectRequest struct {
	Email    string
	Password string
	Serial   string
	Persist  bool
	// AcceptLanguage selects the language of user-facing messages.
	AcceptLanguage string
}

// ConnectResult is the connect response body.
type ConnectResult struct {
	Connect  Outcome `json:"connect"`
	Register Outcome `json:"register"`
	Fabid    string  `json:"fabid"`
}

// AccountLinkService links local accounts to my.fabtotum.com identities.
//
// Writes are read-modify-write on the whole settings blob with no locking, so
// concurrent connect/disconnect for the same user resolve as last writer wins.
type AccountLinkService struct {
	users        interfaces.UserRepository
	provider     interfaces.IdentityProvider
	connectivity interfaces.ConnectivityChecker
	reloader     interfaces.CredentialReloader
	log          logging.Logger
}

func NewAccountLinkService(
	users interfaces.UserRepository,
	provider interfaces.IdentityProvider,
	connectivity interfaces.ConnectivityChecker,
	reloader interfaces.CredentialReloader,
	log logging.Logger,
) *AccountLinkService {
	return &AccountLinkService{
		users:        users,
		provider:     provider,
		connectivity: connectivity,
		reloader:     reloader,
		log:          log.With("component", "myfabtotum"),
	}
}

// Connect logs in to my.fabtotum.com and registers the printer. Registration
// is attempted whatever the login outcome. When req.Persist is set and login
// succeeded, the FABID and password are stored on the session user.
//
// The returned result is always usable as a response body; the error reports
// what went wrong underneath it.
func (s *AccountLinkService) Connect(ctx context.Context, sess *session.Session, req ConnectRequest) (ConnectResult, error) {
	result := ConnectResult{Fabid: req.Email}

	if !s.connectivity.Available(ctx) {
		result.Connect = Outcome{Message: i18n.NoInternetMessage(i18n.Printer(req.AcceptLanguage))}
		s.log.Warn(ctx, "connect skipped, no internet connection", "fabid", req.Email)
		return result, ErrConnectivityUnavailable
	}

	var errs []error

	loginReply, err := s.provider.Login(ctx, req.Email, req.Password)
	if err != nil {
		s.log.Error(ctx, "fabid login failed", "fabid", req.Email, "error", err)
		errs = append(errs, fmt.Errorf("%w: login: %w", ErrRemoteProviderFailure, err))
	} else {
		result.Connect = Outcome{OK: true, Reply: loginReply}
	}

	registerReply, err := s.provider.RegisterPrinter(ctx, req.Email, req.Serial)
	if err != nil {
		s.log.Error(ctx, "printer registration failed", "fabid", req.Email, "serial", req.Serial, "error", err)
		errs = append(errs, fmt.Errorf("%w: register: %w", ErrRemoteProviderFailure, err))
	} else {
		result.Register = Outcome{OK: true, Reply: registerReply}
	}

	if req.Persist && result.Connect.Succeeded() {
		if err := s.link(ctx, sess, &model.FabidLink{Email: req.Email, Password: req.Password}); err != nil {
			errs = append(errs, err)
		} else {
			s.log.Info(ctx, "fabid linked", "user_id", sess.UserID(), "fabid", req.Email)
			s.reload(ctx)
		}
	}

	return result, errors.Join(errs...)
}

// link stores the FABID link on the session user and refreshes the mirror.
func (s *AccountLinkService) link(ctx context.Context, sess *session.Session, link *model.FabidLink) error {
	if !sess.HasUser() {
		s.log.Warn(ctx, "no session user to link", "fabid", link.Email)
		return ErrUserNotFound
	}

	user, err := s.loadUser(ctx, sess.UserID())
	if err != nil {
		return err
	}

	user.Settings.Fabid = link
	sess.User = user

	if err := s.users.UpdateSettings(ctx, user.ID, user.Settings); err != nil {
		s.log.Error(ctx, "saving fabid link failed", "user_id", user.ID, "error", err)
		return fmt.Errorf("save fabid link: %w", err)
	}
	return nil
}

// Disconnect removes the FABID link. With an empty fabid it acts on the
// session user, otherwise on the user linked to that fabid. The boolean is
// always true, including when there was nothing to unlink; the error tells
// the cases apart.
func (s *AccountLinkService) Disconnect(ctx context.Context, sess *session.Session, fabid string) (bool, error) {
	fromSession := fabid == ""

	var (
		user *model.User
		err  error
	)
	switch {
	case fromSession && !sess.HasUser():
		err = ErrUserNotFound
	case fromSession:
		user, err = s.loadUser(ctx, sess.UserID())
	default:
		user, err = s.users.GetUserByFabID(ctx, fabid)
		if errors.Is(err, repository.ErrUserNotFound) {
			err = ErrUserNotFound
		}
	}
	if err != nil {
		s.log.Info(ctx, "nothing to disconnect", "fabid", fabid, "error", err)
		return true, err
	}

	user.Settings.Fabid = nil

	if err := s.users.UpdateSettings(ctx, user.ID, user.Settings); err != nil {
		s.log.Error(ctx, "removing fabid link failed", "user_id", user.ID, "error", err)
		return true, fmt.Errorf("remove fabid link: %w", err)
	}

	if fromSession {
		sess.User = user
	}
	s.log.Info(ctx, "fabid unlinked", "user_id", user.ID)
	s.reload(ctx)

	return true, nil
}

// HandleCallback completes a login made on my.fabtotum.com. A non-empty
// externalID means the remote login succeeded. The session user's link is
// replaced by one holding only the email, the printer is registered without a
// serial if my.fabtotum.com does not know it yet, and the daemon is reloaded.
func (s *AccountLinkService) HandleCallback(ctx context.Context, sess *session.Session, externalID string) error {
	if externalID == "" || !sess.HasUser() {
		return nil
	}

	var errs []error

	user, err := s.loadUser(ctx, sess.UserID())
	if err != nil {
		errs = append(errs, err)
	} else {
		user.Settings.Fabid = &model.FabidLink{Email: externalID}
		sess.User = user
		if err := s.users.UpdateSettings(ctx, user.ID, user.Settings); err != nil {
			s.log.Error(ctx, "saving fabid link failed", "user_id", user.ID, "error", err)
			errs = append(errs, fmt.Errorf("save fabid link: %w", err))
		}
	}

	registered, err := s.provider.IsPrinterRegistered(ctx)
	if err != nil {
		s.log.Error(ctx, "printer registration check failed", "error", err)
		errs = append(errs, fmt.Errorf("%w: registration check: %w", ErrRemoteProviderFailure, err))
	}
	if !registered {
		if _, err := s.provider.RegisterPrinter(ctx, externalID, ""); err != nil {
			s.log.Error(ctx, "printer registration failed", "fabid", externalID, "error", err)
			errs = append(errs, fmt.Errorf("%w: register: %w", ErrRemoteProviderFailure, err))
		}
	}

	s.reload(ctx)

	return errors.Join(errs...)
}

// Status returns the FABID linked to the session user, if any.
func (s *AccountLinkService) Status(sess *session.Session) (linked bool, fabid string) {
	if !sess.HasUser() || !sess.User.IsLinked() {
		return false, ""
	}
	return true, sess.User.Settings.Fabid.Email
}

func (s *AccountLinkService) loadUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load user %d: %w", userID, err)
	}
	return user, nil
}

// reload signals the daemon. A failed signal is only logged.
func (s *AccountLinkService) reload(ctx context.Context) {
	if err := s.reloader.Reload(ctx); err != nil {
		s.log.Error(ctx, "credential reload failed", "error", err)
	}
}
