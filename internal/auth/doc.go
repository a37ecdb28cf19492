// Package auth validates toolbar sign-in credentials.
//
// The toolbar login form posts "cms-username" and "cms-password" to the
// current page with the cms-toolbar-login query parameter. BindLoginForm
// reads those fields and Validate authenticates them against the user store:
//
//	form := auth.BindLoginForm(r.PostForm)
//	ok, err := form.Validate(ctx, users)
//	if ok {
//	    sessions.Login(w, r, form.User())
//	}
//
// Passwords are bcrypt hashes. Unknown usernames still pay for one bcrypt
// comparison so response times don't reveal which accounts exist.
package auth
