package main

// timeoutBody is served by http.TimeoutHandler when a handler does not meet its deadline. Inline scripts would need
// the CSP nonce, so retrying is a plain link to the same page.
const timeoutBody = `<!doctype html>
<html lang="es">
<head><title>Tiempo agotado</title></head>
<body>
<h1>Tiempo agotado</h1>
<p>El servidor tardó demasiado en responder.</p>
<p><a href="">Reintentar</a></p>
</body>
</html>
`
