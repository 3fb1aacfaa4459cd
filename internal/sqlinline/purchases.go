package sqlinline

// QCreditPurchase records a paid checkout session and credits the balance in
// one statement. The insert lands at most once per session id, so replayed
// webhooks and the polled verify path cannot double-credit: on conflict the
// CTE yields no row and the update is skipped (pgx reports ErrNoRows).
const QCreditPurchase = `--sql f2c5a8d1-3e64-4b0f-8c7a-9b1e4d7f0a53
with ins as (
    insert into purchases(session_id, user_id, credits, country)
    values ($1::text, $2::text, $3::int, $4::text)
    on conflict (session_id) do nothing
    returning user_id, credits
)
update credit_balances cb
set balance = cb.balance + ins.credits, updated_at = now()
from ins
where cb.user_id = ins.user_id
returning cb.balance;
`
