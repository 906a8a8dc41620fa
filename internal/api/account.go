package api

import (
	"net/http"

	"github.com/sadopc/mindjournal/internal/store"
	"github.com/sadopc/mindjournal/internal/validate"
)

type signUpRequest struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// sessionResponse carries an empty token when the account still needs
// email confirmation.
type sessionResponse struct {
	User  *store.User `json:"user"`
	Token string      `json:"token,omitempty"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	in, err := validate.SignUp(validate.SignUpInput{
		FullName:        req.FullName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	u, token, err := s.auth.SignUp(in.Email, in.Password, in.FullName)
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{User: u, Token: token})
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	in, err := validate.SignIn(validate.SignInInput{Email: req.Email, Password: req.Password})
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	u, token, err := s.auth.SignIn(in.Email, in.Password)
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: u, Token: token})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userFrom(r))
}

type profileRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	in, err := validate.Profile(validate.ProfileInput{FullName: req.FullName, Email: req.Email})
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	u, err := s.auth.UpdateProfile(userFrom(r).ID, in.FullName, in.Email)
	if err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

type passwordRequest struct {
	Password        string `json:"password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req passwordRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	in, err := validate.PasswordChange(validate.PasswordChangeInput{
		Current: req.Password,
		New:     req.NewPassword,
		Confirm: req.ConfirmPassword,
	})
	if err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	if err := s.auth.ChangePassword(userFrom(r).ID, in.Current, in.New); err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.DeleteAccount(userFrom(r).ID); err != nil {
		s.fail(w, r, statusFor(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
