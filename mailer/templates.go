// mailer/templates.go
package mailer

import "fmt"

// UnionApprovalMessage composes the credential email sent when a union is
// approved. The password is the issued credential, never re-derived here.
func UnionApprovalMessage(to, unionName, email, password string) Message {
	html := fmt.Sprintf(`<html><body>
<h2>Registration Approved</h2>
<p>Dear %s,</p>
<p>Your union registration has been <b>approved</b>. You can now log in with:</p>
<ul>
  <li>Email: <b>%s</b></li>
  <li>Password: <b>%s</b></li>
</ul>
<p>Welcome aboard.</p>
<p>— Federation Office</p>
</body></html>`, unionName, email, password)

	return Message{
		To:      to,
		Subject: "Union Registration Approved",
		HTML:    html,
	}
}

// PlayerApprovalMessage composes the credential email sent when a player is
// approved, carrying the minted membership code.
func PlayerApprovalMessage(to, playerName, playerCode, password string) Message {
	html := fmt.Sprintf(`<html><body>
<h2>Registration Approved</h2>
<p>Dear %s,</p>
<p>Your player registration has been <b>approved</b>.</p>
<ul>
  <li>Player ID: <b>%s</b></li>
  <li>Password: <b>%s</b></li>
</ul>
<p>Keep your Player ID safe — it identifies you in competitions and belt tests.</p>
<p>— Federation Office</p>
</body></html>`, playerName, playerCode, password)

	return Message{
		To:      to,
		Subject: "Player Registration Approved",
		HTML:    html,
	}
}
