/*
Package authsdk provides a client SDK for the passguard identity service.

# SDKClient vs Session

  - SDKClient: unauthenticated operations (login, register, refresh, health)
  - Session: authenticated operations with automatic token refresh

Create an SDKClient and log in to get a Session:

	client := authsdk.NewSDKClient("https://auth.example.com")

	session, login, err := client.AuthenticateWithPassword(ctx, "alice", "Passw0rd!")
	if err != nil {
		return err
	}
	if login.Status == authsdk.StatusRequirePasswordChange {
		err = session.ChangePassword(ctx, "Passw0rd!", "N3w!passw")
	}

	profile, err := session.Profile(ctx)

# Automatic Token Refresh

Every Session method first checks the access token expiry (with a 30 second
buffer) and, when it has passed, spends the refresh token for a new pair.
Refresh tokens are single use; a Session that has logged out cannot refresh.

# Error Handling

Non-2xx responses are returned as *APIError carrying the service's stable
error code, message and, for validation failures, the per-field errors:

	_, err := client.Register(ctx, req)
	if authsdk.IsCode(err, authsdk.ErrorCodeInvalidRequest) {
		for field, msgs := range err.(*authsdk.APIError).Errors {
			fmt.Println(field, msgs)
		}
	}
*/
package authsdk
