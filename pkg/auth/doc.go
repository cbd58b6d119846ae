// Package auth implements session based authentication.
//
// A Manager pairs a UserProvider with a password Hasher. Each request gets a
// Guard that reads the user id stored under SessionKey and loads the user
// lazily, once. Login and Logout rotate the session token.
//
//	users := auth.NewModelProvider(model.NewRepository[User](db), "email")
//	authn := auth.New[*User](users, auth.BcryptHasher{})
//
//	ok, err := authn.Guard(req).Attempt(ctx, email, password)
package auth
