package sqlinline

// QCheckCredits returns the balance together with whether it covers $2.
const QCheckCredits = `--sql 6f28c58c-dbe5-42e8-bc0b-5711aa574cb0
select coalesce(c.balance, 0), coalesce(c.balance, 0) >= $2::int
from (select $1::uuid as user_id) u
left join user_credits c on c.user_id = u.user_id;
`

// QDeductCredits subtracts $2 without re-checking the balance; the check
// happens in a separate round trip before generation.
const QDeductCredits = `--sql 311ac5db-ca51-43cc-a43b-7635b86f6901
update user_credits
set balance = balance - $2::int,
    updated_at = now()
where user_id = $1::uuid
returning balance;
`

const QGrantCredits = `--sql 952b9aaa-72f0-4b92-9785-5e94d8f2cbe2
insert into user_credits (user_id, balance, created_at, updated_at)
values ($1::uuid, $2::int, now(), now())
on conflict (user_id) do update set
    balance = user_credits.balance + excluded.balance,
    updated_at = now()
returning balance;
`

const QSetCredits = `--sql 77bba43c-2979-4731-bb71-e78d1f6847c1
insert into user_credits (user_id, balance, created_at, updated_at)
values ($1::uuid, $2::int, now(), now())
on conflict (user_id) do update set
    balance = excluded.balance,
    updated_at = now()
returning balance;
`
