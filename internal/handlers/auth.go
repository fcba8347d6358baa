package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"voxvid-client/internal/backend"
	"voxvid-client/internal/models"
	"voxvid-client/internal/store"
)

func (a *App) loginPage(w http.ResponseWriter, r *http.Request) {
	if a.session.IsAuthenticated() {
		http.Redirect(w, r, "/home", http.StatusSeeOther)
		return
	}
	a.render(w, "login.html", authPage{Title: "Sign In"})
}

func (a *App) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.render(w, "login.html", authPage{Title: "Sign In", Error: "invalid form submission"})
		return
	}
	identity := strings.TrimSpace(r.FormValue("identity"))
	password := r.FormValue("password")
	if identity == "" || password == "" {
		a.render(w, "login.html", authPage{Title: "Sign In", Error: "Email and password are required"})
		return
	}

	auth, err := a.api.Login(r.Context(), identity, password)
	if err != nil {
		a.render(w, "login.html", authPage{Title: "Sign In", Error: backend.UserMessage(err)})
		return
	}
	if err := a.session.SignIn(auth.Tokens); err != nil {
		a.logger.Error("failed to store session", "error", err)
		a.render(w, "login.html", authPage{Title: "Sign In", Error: "Could not start a session on this device"})
		return
	}
	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

func (a *App) signupPage(w http.ResponseWriter, r *http.Request) {
	a.render(w, "signup.html", authPage{Title: "Create Account"})
}

func (a *App) signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.render(w, "signup.html", authPage{Title: "Create Account", Error: "invalid form submission"})
		return
	}
	username := strings.TrimSpace(r.FormValue("username"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	if username == "" || email == "" || len(password) < 8 {
		a.render(w, "signup.html", authPage{Title: "Create Account", Error: "Username, email and a password of at least 8 characters are required"})
		return
	}

	auth, err := a.api.Register(r.Context(), username, email, password,
		strings.TrimSpace(r.FormValue("first_name")), strings.TrimSpace(r.FormValue("last_name")))
	if err != nil {
		a.render(w, "signup.html", authPage{Title: "Create Account", Error: backend.UserMessage(err)})
		return
	}
	if err := a.session.SignIn(auth.Tokens); err != nil {
		a.logger.Error("failed to store session", "error", err)
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

func (a *App) forgotPage(w http.ResponseWriter, r *http.Request) {
	a.render(w, "forgot.html", authPage{Title: "Reset Password"})
}

func (a *App) requestReset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.render(w, "forgot.html", authPage{Title: "Reset Password", Error: "invalid form submission"})
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	if email == "" {
		a.render(w, "forgot.html", authPage{Title: "Reset Password", Error: "Please enter your email"})
		return
	}
	if err := a.api.RequestPasswordReset(r.Context(), email); err != nil {
		a.render(w, "forgot.html", authPage{Title: "Reset Password", Error: backend.UserMessage(err), Email: email})
		return
	}
	a.render(w, "forgot.html", authPage{
		Title:   "Reset Password",
		Notice:  "Check your email for a verification code",
		Email:   email,
		OTPSent: true,
	})
}

func (a *App) verifyReset(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		a.render(w, "forgot.html", authPage{Title: "Reset Password", Error: "invalid form submission"})
		return
	}
	email := strings.TrimSpace(r.FormValue("email"))
	otp := strings.TrimSpace(r.FormValue("otp"))
	password := r.FormValue("new_password")
	if email == "" || otp == "" || len(password) < 8 {
		a.render(w, "forgot.html", authPage{Title: "Reset Password", Error: "Code and a password of at least 8 characters are required", Email: email, OTPSent: true})
		return
	}
	if err := a.api.VerifyPasswordReset(r.Context(), email, otp, password); err != nil {
		a.render(w, "forgot.html", authPage{Title: "Reset Password", Error: backend.UserMessage(err), Email: email, OTPSent: true})
		return
	}
	a.render(w, "login.html", authPage{Title: "Sign In", Notice: "Password updated. Sign in with your new password."})
}

func (a *App) logout(w http.ResponseWriter, r *http.Request) {
	a.session.SignOut()
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (a *App) profilePage(w http.ResponseWriter, r *http.Request) {
	profile, err := a.api.Me(r.Context())
	if err != nil {
		if backend.KindOf(err) == backend.Unauthorized {
			a.session.SignOut()
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		a.logger.Warn("failed to load profile", "error", err)
		a.render(w, "profile.html", profilePage{Title: "Profile", Error: backend.UserMessage(err)})
		return
	}
	a.render(w, "profile.html", profilePage{Title: "Profile", Profile: profile})
}

func (a *App) updateProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	updated, err := a.api.UpdateProfile(r.Context(), models.Profile{
		Username:  strings.TrimSpace(r.FormValue("username")),
		Email:     strings.TrimSpace(r.FormValue("email")),
		FirstName: strings.TrimSpace(r.FormValue("first_name")),
		LastName:  strings.TrimSpace(r.FormValue("last_name")),
	})
	if err != nil {
		a.render(w, "profile.html", profilePage{Title: "Profile", Error: backend.UserMessage(err)})
		return
	}
	a.render(w, "profile.html", profilePage{Title: "Profile", Profile: updated, Notice: "Profile saved"})
}

func (a *App) settingsPage(w http.ResponseWriter, r *http.Request) {
	a.render(w, "settings.html", settingsPage{Title: "Settings", Prefs: a.preferences()})
}

func (a *App) saveSettings(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form submission", http.StatusBadRequest)
		return
	}
	prefs := a.preferences()
	prefs.Muted = r.FormValue("muted") == "on"
	if provider := strings.TrimSpace(r.FormValue("default_provider")); provider != "" {
		prefs.DefaultProvider = provider
	}
	if size, err := strconv.Atoi(r.FormValue("feed_page_size")); err == nil && size > 0 && size <= 50 {
		prefs.FeedPageSize = size
	}
	if err := a.store.Set(store.KeyPreferences, prefs); err != nil {
		a.logger.Error("failed to save preferences", "error", err)
	}
	a.render(w, "settings.html", settingsPage{Title: "Settings", Prefs: prefs, Notice: "Settings saved"})
}

// preferences reads the stored blob, falling back to defaults when it
// is absent or unreadable.
func (a *App) preferences() models.Preferences {
	prefs := models.DefaultPreferences()
	if ok, err := a.store.Get(store.KeyPreferences, &prefs); err != nil || !ok {
		return models.DefaultPreferences()
	}
	return prefs
}
